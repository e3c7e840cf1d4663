package ai

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"docvoice/audio"
)

// WhisperEngineConfig configures the sherpa-onnx Whisper engine.
type WhisperEngineConfig struct {
	EncoderPath string
	DecoderPath string
	TokensPath  string

	// VADModelPath points to a Silero VAD model used to split the file into
	// speech segments. Optional; empty means the whole file becomes one
	// segment.
	VADModelPath string

	// Language forces a recognition language; empty means auto-detect.
	Language string

	// TranslateLanguages lists detected languages that trigger a second
	// pass in translate mode.
	TranslateLanguages []string

	NumThreads int
	Provider   string // cpu, cuda, coreml, auto
}

// WhisperEngine transcribes audio files with sherpa-onnx Whisper models.
// Two recognizers are built at startup from the same model files, one for
// the transcribe task and one for translate, so the translation pass never
// reloads the model.
type WhisperEngine struct {
	config       WhisperEngineConfig
	provider     string
	recognizer   *sherpa.OfflineRecognizer
	translator   *sherpa.OfflineRecognizer
	translateSet map[string]bool
	decode       decodeFunc
	mu           sync.Mutex
}

// decodeFunc runs one speech span through a recognizer and returns the text
// and the reported language token.
type decodeFunc func(recognizer *sherpa.OfflineRecognizer, samples []float32, sampleRate int) (text, lang string)

// NewWhisperEngine loads the Whisper models eagerly. A load failure here
// prevents the pipeline from being constructed at all.
func NewWhisperEngine(config WhisperEngineConfig) (*WhisperEngine, error) {
	for _, path := range []string{config.EncoderPath, config.DecoderPath, config.TokensPath} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("whisper model file not found: %s", path)
		}
	}
	if config.NumThreads <= 0 {
		config.NumThreads = 4
	}

	provider := resolveProvider(config.Provider)
	log.Printf("WhisperEngine: using provider=%s (requested=%s)", provider, config.Provider)

	recognizer, provider, err := newWhisperRecognizer(config, provider, "transcribe")
	if err != nil {
		return nil, err
	}
	translator, _, err := newWhisperRecognizer(config, provider, "translate")
	if err != nil {
		sherpa.DeleteOfflineRecognizer(recognizer)
		return nil, err
	}

	translateSet := make(map[string]bool, len(config.TranslateLanguages))
	for _, lang := range config.TranslateLanguages {
		translateSet[lang] = true
	}

	log.Printf("WhisperEngine initialized: encoder=%s, translate languages=%v",
		config.EncoderPath, config.TranslateLanguages)

	return &WhisperEngine{
		config:       config,
		provider:     provider,
		recognizer:   recognizer,
		translator:   translator,
		translateSet: translateSet,
		decode:       decodeSpan,
	}, nil
}

// newWhisperRecognizer builds one offline recognizer for the given task,
// falling back to the CPU provider if the requested one fails.
func newWhisperRecognizer(config WhisperEngineConfig, provider, task string) (*sherpa.OfflineRecognizer, string, error) {
	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{SampleRate: 16000, FeatureDim: 80},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  config.EncoderPath,
				Decoder:  config.DecoderPath,
				Language: config.Language,
				Task:     task,
			},
			Tokens:     config.TokensPath,
			NumThreads: config.NumThreads,
			Debug:      0,
			Provider:   provider,
		},
		DecodingMethod: "greedy_search",
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if recognizer == nil && provider != "cpu" {
		log.Printf("WhisperEngine: %s provider failed, falling back to CPU", provider)
		provider = "cpu"
		sherpaConfig.ModelConfig.Provider = provider
		recognizer = sherpa.NewOfflineRecognizer(&sherpaConfig)
	}
	if recognizer == nil {
		return nil, provider, fmt.Errorf("failed to create whisper recognizer (task=%s)", task)
	}
	return recognizer, provider, nil
}

// Transcribe transcribes the file, translating non-target languages.
func (e *WhisperEngine) Transcribe(path string) (*TranscriptionResult, error) {
	return e.TranscribeWithOptions(path, true)
}

// TranscribeWithOptions runs a language-detection pass and, when the
// detected language is in the configured translate set and translateNonTarget
// is true, a second pass in translate mode over the same audio. The returned
// Language always reflects the first-pass detection.
//
// Hard preconditions (engine closed, file missing or empty) are returned as
// errors. Model runtime failures are logged and produce the empty result so
// downstream stages see a data condition, not a control-flow error.
func (e *WhisperEngine) TranscribeWithOptions(path string, translateNonTarget bool) (*TranscriptionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recognizer == nil {
		return nil, fmt.Errorf("whisper model not loaded")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("audio file is empty: %s", path)
	}

	log.Printf("WhisperEngine: transcribing %s (%d bytes)", path, info.Size())

	samples, sampleRate, err := audio.ReadWAV(path)
	if err != nil {
		log.Printf("WhisperEngine: error reading audio: %v", err)
		return emptyResult(), nil
	}

	decode := e.decode
	if decode == nil {
		decode = decodeSpan
	}

	spans := e.splitSpeech(samples, sampleRate)

	segments := make([]TranscriptSegment, 0, len(spans))
	language := "unknown"
	for _, span := range spans {
		text, lang := decode(e.recognizer, span.samples, sampleRate)
		if language == "unknown" {
			if detected := normalizeLang(lang); detected != "" {
				language = detected
			}
		}
		if text == "" {
			continue
		}
		segments = append(segments, TranscriptSegment{
			Text:  text,
			Start: float64(span.start) / float64(sampleRate),
			End:   float64(span.start+len(span.samples)) / float64(sampleRate),
		})
	}
	log.Printf("WhisperEngine: detected language: %s", language)

	if translateNonTarget && e.translateSet[language] {
		// Second pass over the same audio. The first pass's text is
		// discarded, its detected language is kept.
		log.Printf("WhisperEngine: translating %s to target language", language)
		segments = segments[:0]
		for _, span := range spans {
			text, _ := decode(e.translator, span.samples, sampleRate)
			if text == "" {
				continue
			}
			segments = append(segments, TranscriptSegment{
				Text:  text,
				Start: float64(span.start) / float64(sampleRate),
				End:   float64(span.start+len(span.samples)) / float64(sampleRate),
			})
		}
	}

	return &TranscriptionResult{
		Text:     joinSegments(segments),
		Language: language,
		Segments: segments,
	}, nil
}

// speechSpan is a run of speech samples starting at a sample offset.
type speechSpan struct {
	start   int
	samples []float32
}

// splitSpeech cuts the file into speech spans with Silero VAD. Without a
// VAD model, or when the VAD fails to load, the whole file is one span.
func (e *WhisperEngine) splitSpeech(samples []float32, sampleRate int) []speechSpan {
	whole := []speechSpan{{start: 0, samples: samples}}
	if e.config.VADModelPath == "" || len(samples) == 0 {
		return whole
	}

	vadConfig := sherpa.VadModelConfig{
		SileroVad: sherpa.SileroVadModelConfig{
			Model:              e.config.VADModelPath,
			Threshold:          0.5,
			MinSilenceDuration: 0.5,
			MinSpeechDuration:  0.25,
			WindowSize:         512,
			MaxSpeechDuration:  30,
		},
		SampleRate: sampleRate,
		NumThreads: e.config.NumThreads,
		Provider:   e.provider,
	}

	vad := sherpa.NewVoiceActivityDetector(&vadConfig, 60)
	if vad == nil {
		log.Printf("WhisperEngine: warning: VAD failed to load, transcribing whole file")
		return whole
	}
	defer sherpa.DeleteVoiceActivityDetector(vad)

	window := vadConfig.SileroVad.WindowSize
	for i := 0; i+window <= len(samples); i += window {
		vad.AcceptWaveform(samples[i : i+window])
	}
	vad.Flush()

	var spans []speechSpan
	for !vad.IsEmpty() {
		segment := vad.Front()
		vad.Pop()
		spans = append(spans, speechSpan{start: segment.Start, samples: segment.Samples})
	}
	if len(spans) == 0 {
		return whole
	}
	return spans
}

// decodeSpan runs one speech span through a recognizer.
func decodeSpan(recognizer *sherpa.OfflineRecognizer, samples []float32, sampleRate int) (text, lang string) {
	stream := sherpa.NewOfflineStream(recognizer)
	if stream == nil {
		log.Printf("WhisperEngine: error creating decode stream")
		return "", ""
	}
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(sampleRate, samples)
	recognizer.Decode(stream)
	result := stream.GetResult()
	if result == nil {
		return "", ""
	}
	return strings.TrimSpace(result.Text), result.Lang
}

// normalizeLang strips the whisper token form ("<|en|>") down to the bare
// code. Returns "" when no language was reported.
func normalizeLang(lang string) string {
	lang = strings.TrimSuffix(strings.TrimPrefix(lang, "<|"), "|>")
	return strings.TrimSpace(lang)
}

func joinSegments(segments []TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, " ")
}

func emptyResult() *TranscriptionResult {
	return &TranscriptionResult{Text: "", Language: "unknown", Segments: []TranscriptSegment{}}
}

// Close releases both recognizers.
func (e *WhisperEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(e.recognizer)
		e.recognizer = nil
	}
	if e.translator != nil {
		sherpa.DeleteOfflineRecognizer(e.translator)
		e.translator = nil
	}
	log.Printf("WhisperEngine closed")
}
