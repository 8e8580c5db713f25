package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
}

type tokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

type task struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   *string `json:"updatedAt"`
	DueDate     *string `json:"dueDate"`
}

// apiClient drives the REST API end to end, mostly useful for smoke testing a
// running stack.
type apiClient struct {
	base   string
	token  string
	client *http.Client
}

func main() {
	var base string

	flag.StringVar(&base, "base", "http://0.0.0.0:9234", "API base URL")
	flag.Parse()

	initTracer()

	c := &apiClient{
		base:   base,
		client: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}

	ctx := context.Background()

	email := fmt.Sprintf("cli-%d@example.com", time.Now().UnixNano())

	var registered envelope
	if err := c.do(ctx, http.MethodPost, "/api/register", map[string]interface{}{
		"email":    email,
		"password": "correct-horse-battery",
	}, &registered); err != nil {
		log.Fatalf("Couldn't register: %s", err)
	}

	fmt.Printf("Registered %s\n", email)

	var login envelope
	if err := c.do(ctx, http.MethodPost, "/api/login", map[string]interface{}{
		"email":    email,
		"password": "correct-horse-battery",
	}, &login); err != nil {
		log.Fatalf("Couldn't login: %s", err)
	}

	var pair tokenPair
	if err := json.Unmarshal(login.Data, &pair); err != nil {
		log.Fatalf("Couldn't decode tokens: %s", err)
	}

	c.token = pair.Token

	var created envelope
	if err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":       "Sleep early",
		"description": "Lights out before midnight",
		"dueDate":     time.Now().Add(24 * time.Hour).Format("2006-01-02"),
	}, &created); err != nil {
		log.Fatalf("Couldn't create task: %s", err)
	}

	var t task
	if err := json.Unmarshal(created.Data, &t); err != nil {
		log.Fatalf("Couldn't decode task: %s", err)
	}

	fmt.Printf("New Task\n\tID: %d\n\tTitle: %s\n\tStatus: %s\n", t.ID, t.Title, t.Status)

	var updated envelope
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", t.ID), map[string]interface{}{
		"status": "completed",
	}, &updated); err != nil {
		log.Fatalf("Couldn't update task: %s", err)
	}

	var read envelope
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", t.ID), nil, &read); err != nil {
		log.Fatalf("Couldn't read task: %s", err)
	}

	if err := json.Unmarshal(read.Data, &t); err != nil {
		log.Fatalf("Couldn't decode task: %s", err)
	}

	fmt.Printf("Updated Task\n\tID: %d\n\tStatus: %s\n", t.ID, t.Status)

	var stats envelope
	if err := c.do(ctx, http.MethodGet, "/api/tasks/stats", nil, &stats); err != nil {
		log.Fatalf("Couldn't read stats: %s", err)
	}

	fmt.Printf("Stats: %s\n", stats.Data)

	var deleted envelope
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", t.ID), nil, &deleted); err != nil {
		log.Fatalf("Couldn't delete task: %s", err)
	}

	fmt.Printf("Deleted: %s\n", deleted.Message)

	// Give the batch span processors a chance to flush.
	time.Sleep(10 * time.Second)
}

func (c *apiClient) do(ctx context.Context, method, path string, body interface{}, out *envelope) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("json.Encode: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, &buf)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("client.Do: %w", err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	if !out.Success {
		return fmt.Errorf("%s %s: %s", method, path, out.Message)
	}

	return nil
}

func initTracer() {
	jaegerEndpoint := "http://localhost:14268/api/traces"

	jaegerExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
	if err != nil {
		log.Fatalf("Couldn't initialize jaeger exporter: %s", err)
	}

	stdoutExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("Couldn't initialize stdout exporter: %s", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(stdoutExporter),
		sdktrace.WithBatcher(jaegerExporter),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
}
