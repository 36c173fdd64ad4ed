// A demo service wiring the Logward client into a small HTTP API: request
// logging via middleware, handler-level logging with metadata and
// correlation scopes, and a metrics dump endpoint.
//
// Run a fake ingestion backend and the demo in one process:
//
//	go run ./_example
//
// then generate some traffic:
//
//	curl -H 'X-Correlation-ID: 0f8fad5b-d9cb-469f-a165-70867728950e' localhost:8080/orders/42
//	curl -X POST localhost:8080/orders
//	curl localhost:8080/metrics
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/logward-dev/logward-go"
	"github.com/logward-dev/logward-go/logwardhttp"
)

func main() {
	// A stand-in for the Logward backend: accepts batches and prints a
	// summary line per batch.
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Logs []logward.Entry `json:"logs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, e := range body.Logs {
			log.Printf("backend: [%s] %s %s (correlation %s)", e.Level, e.Service, e.Message, e.CorrelationID)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer backend.Close()

	api, err := logwardhttp.NewAPI(backend.URL, "demo-key")
	if err != nil {
		log.Fatal(err)
	}

	cfg := logward.DefaultConfig()
	cfg.APIURL = backend.URL
	cfg.APIKey = "demo-key"
	cfg.BatchSize = 10
	cfg.FlushInterval = 2 * time.Second
	cfg.GlobalMetadata = logward.Metadata{"env": "demo", "version": "1.0.0"}
	cfg.Debug = true

	client, err := logward.NewClient(cfg, api)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	mux := http.NewServeMux()

	mux.HandleFunc("/orders/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/orders/")

		client.Info(r.Context(), "orders", "looking up order", logward.Metadata{"orderId": id})

		if rand.Float64() < 0.2 {
			err := fmt.Errorf("order %s: not found", id)
			client.LogError(r.Context(), "orders", "lookup failed", err)
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		fmt.Fprintf(w, `{"orderId":%q,"status":"shipped"}`+"\n", id)
	})

	mux.HandleFunc("/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "only POST is supported", http.StatusMethodNotAllowed)
			return
		}

		// Background work detached from the request keeps the same
		// correlation id through a scope.
		logward.WithNewCorrelationScope(context.Background(), func(ctx context.Context) error {
			client.Info(ctx, "orders", "order accepted", logward.Metadata{
				"items": []any{"sku-1", "sku-2"},
				"total": 129.95,
			})
			go func() {
				time.Sleep(50 * time.Millisecond)
				client.Info(ctx, "billing", "invoice issued", nil)
			}()
			return nil
		})

		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(client.Metrics())
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok\n")
	})

	handler := logwardhttp.Middleware(client, "demo-api")(mux)

	server := &http.Server{Addr: "localhost:8080", Handler: handler}
	go func() {
		log.Printf("demo API on http://%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}
