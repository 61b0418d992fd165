// Command cli runs the extraction pipeline without persisting anything.
// It classifies a message, normalizes every candidate, and prints what
// would have been written to the ledger.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/bizledger/internal/classifier"
	"github.com/dvloznov/bizledger/internal/config"
	"github.com/dvloznov/bizledger/internal/logger"
	"github.com/dvloznov/bizledger/internal/normalizer"
)

func main() {
	var (
		message    = flag.String("message", "", "Natural-language transaction message to extract")
		businessID = flag.String("business", "dry-run", "Business id to stamp on extracted records")
		timeout    = flag.Duration("timeout", 60*time.Second, "Classifier call timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.LogLevel)

	if *message == "" {
		fmt.Fprintln(os.Stderr, "Error: -message is required")
		flag.Usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	today := civil.DateOf(time.Now().UTC())

	gemini := classifier.NewGemini(cfg.GeminiModel, log)
	parsed := gemini.Classify(ctx, classifier.Request{
		Utterance:  *message,
		BusinessID: *businessID,
		Today:      today,
	})

	type result struct {
		Candidate map[string]any `json:"candidate"`
		Record    any            `json:"record,omitempty"`
		Error     string         `json:"error,omitempty"`
	}

	out := struct {
		Results           []result `json:"results"`
		FollowUpQuestions []string `json:"follow_up_questions"`
		Confidence        float64  `json:"confidence"`
	}{
		FollowUpQuestions: parsed.FollowUpQuestions,
		Confidence:        parsed.Confidence,
	}

	for _, candidate := range parsed.Transactions {
		rec, err := normalizer.Normalize(candidate, *businessID, today)
		if err != nil {
			out.Results = append(out.Results, result{Candidate: candidate, Error: err.Error()})
			continue
		}
		out.Results = append(out.Results, result{Candidate: candidate, Record: rec})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
