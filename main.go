// docvoice backend: accepts audio uploads over HTTP or WebSocket, runs them
// through the speech pipeline and returns a speaker-attributed transcript.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"docvoice/ai"
	"docvoice/audio"
	"docvoice/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// processor is the part of ai.Pipeline the handlers need.
type processor interface {
	Process(audioPath string) ai.Outcome
}

func main() {
	log.Println("docvoice backend starting...")

	configPath := flag.String("config", "config.yaml", "Path to YAML config")
	port := flag.Int("port", 0, "Listen port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Config: %v, using defaults", err)
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.ListenPort = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	scratch, err := audio.NewTempManager(cfg.ScratchDir)
	if err != nil {
		log.Fatalf("Failed to init scratch storage: %v", err)
	}
	ingestor := audio.NewIngestor(scratch, audio.NewNormalizer(scratch, &audio.FFmpegConverter{}))

	log.Println("Loading Whisper model...")
	engine, err := ai.NewWhisperEngine(ai.WhisperEngineConfig{
		EncoderPath:        cfg.Whisper.EncoderPath,
		DecoderPath:        cfg.Whisper.DecoderPath,
		TokensPath:         cfg.Whisper.TokensPath,
		VADModelPath:       cfg.VADModelPath,
		Language:           cfg.Whisper.Language,
		TranslateLanguages: cfg.TranslateLanguages,
		NumThreads:         cfg.NumThreads,
		Provider:           cfg.Provider,
	})
	if err != nil {
		log.Fatalf("Failed to load Whisper model: %v", err)
	}
	defer engine.Close()

	// Diarization is optional: without models we run in single-speaker mode.
	var diarizer ai.Diarizer = ai.NoopDiarizer{}
	if cfg.DiarizationEnabled() {
		log.Println("Loading speaker diarization models...")
		sherpaDiarizer, err := ai.NewSherpaDiarizer(ai.SherpaDiarizerConfig{
			SegmentationModelPath: cfg.Diarization.SegmentationModelPath,
			EmbeddingModelPath:    cfg.Diarization.EmbeddingModelPath,
			NumThreads:            cfg.NumThreads,
			ClusteringThreshold:   cfg.Diarization.ClusteringThreshold,
			MinDurationOn:         cfg.Diarization.MinDurationOn,
			MinDurationOff:        cfg.Diarization.MinDurationOff,
			Provider:              cfg.Provider,
		})
		if err != nil {
			log.Printf("Warning: could not load diarization models: %v", err)
		} else {
			defer sherpaDiarizer.Close()
			diarizer = sherpaDiarizer
		}
	} else {
		log.Println("Warning: no diarization models configured. Diarization disabled.")
	}

	pipeline, err := ai.NewPipeline(engine, diarizer, scratch)
	if err != nil {
		log.Fatalf("Failed to init pipeline: %v", err)
	}

	http.HandleFunc("/api/transcribe", newTranscribeHandler(ingestor, pipeline))
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handleConnection(conn, ingestor, pipeline)
	})

	addr := fmt.Sprintf(":%d", cfg.ListenPort)
	log.Printf("Listening on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// newTranscribeHandler handles POST /api/transcribe with a multipart
// "audio" field. The response is always a well-formed outcome record.
func newTranscribeHandler(ingestor *audio.Ingestor, pipeline processor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			http.Error(w, "Missing audio file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		path, err := ingestor.SaveIncomingAudio(r.Context(), file, header.Filename)
		if err != nil {
			writeOutcome(w, ai.Outcome{
				Success:  false,
				Language: "unknown",
				Segments: []ai.AlignedSegment{},
				Error:    err.Error(),
			})
			return
		}

		writeOutcome(w, pipeline.Process(path))
	}
}

func writeOutcome(w http.ResponseWriter, outcome ai.Outcome) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// wsMessage is the control message shape on the WebSocket.
type wsMessage struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// handleConnection serves one WebSocket client. A text message of type
// "filename" names the following upload; a binary message carries the audio
// blob and triggers processing.
func handleConnection(conn *websocket.Conn, ingestor *audio.Ingestor, pipeline processor) {
	filename := ""
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.TextMessage:
			var msg wsMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				log.Printf("WebSocket: bad message: %v", err)
				continue
			}
			if msg.Type == "filename" {
				filename = msg.Data
			}

		case websocket.BinaryMessage:
			path, err := ingestor.SaveIncomingAudio(context.Background(), bytes.NewReader(data), filename)
			filename = ""
			var outcome ai.Outcome
			if err != nil {
				outcome = ai.Outcome{
					Success:  false,
					Language: "unknown",
					Segments: []ai.AlignedSegment{},
					Error:    err.Error(),
				}
			} else {
				outcome = pipeline.Process(path)
			}
			if err := conn.WriteJSON(outcome); err != nil {
				log.Printf("WebSocket: write error: %v", err)
				return
			}
		}
	}
}
