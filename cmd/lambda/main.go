// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// The lambda entrypoint runs one snapshot lifecycle pass per invocation,
// configured entirely from the environment. It always returns a proxy-style
// response; per-snapshot delete failures never fail the invocation.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/apex/log"
	"github.com/aws/aws-lambda-go/lambda"

	awsx "github.com/staranto/snapctlgo/internal/aws"
	"github.com/staranto/snapctlgo/internal/lifecycle"
	mylog "github.com/staranto/snapctlgo/internal/log"
	"github.com/staranto/snapctlgo/internal/notify"
)

// Response mirrors the API Gateway proxy shape so the function can sit
// behind a gateway or be invoked on a schedule interchangeably.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type responseBody struct {
	Message string               `json:"message"`
	Summary string               `json:"summary,omitempty"`
	Report  *lifecycle.RunReport `json:"report,omitempty"`
}

func respond(status int, body responseBody) (Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		// Marshal of these fields cannot realistically fail; keep the
		// contract of never returning an error to the runtime anyway.
		return Response{StatusCode: 500, Body: `{"message":"internal error"}`}, nil
	}
	return Response{StatusCode: status, Body: string(raw)}, nil
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func envInt(key string) int {
	v, _ := strconv.Atoi(os.Getenv(key))
	return v
}

// handler runs the full lifecycle: create one snapshot of VOLUME_ID, sweep
// expired snapshots, publish a summary to SNS_TOPIC_ARN if set.
func handler(ctx context.Context) (Response, error) {
	volumeID := os.Getenv("VOLUME_ID")
	if volumeID == "" {
		return respond(400, responseBody{Message: "VOLUME_ID is not set"})
	}

	cfg, err := awsx.LoadAWSConfig(ctx)
	if err != nil {
		log.Errorf("failed to load AWS config: %v", err)
		return respond(500, responseBody{Message: fmt.Sprintf("failed to load AWS config: %v", err)})
	}

	mgr := lifecycle.NewManager(awsx.NewEC2(cfg),
		lifecycle.WithRetention(envInt("RETENTION_DAYS")),
		lifecycle.WithDescriptionPrefix(os.Getenv("SNAPSHOT_DESCRIPTION_PREFIX")),
		lifecycle.WithSweepPrefix(os.Getenv("SWEEP_PREFIX")),
		lifecycle.WithDryRun(envBool("DRY_RUN")),
	)

	report, runErr := mgr.Run(ctx, volumeID)

	if report != nil {
		n := notify.NewNotifier(awsx.NewSNS(cfg), os.Getenv("SNS_TOPIC_ARN"))
		subject := fmt.Sprintf("Snapshot report: %d deleted, %d failed",
			len(report.DeletedSnapshotIDs), len(report.FailedDeletions))
		if err := n.Publish(ctx, "SNAPSHOT_LIFECYCLE", subject, report.Summary(), report); err != nil {
			log.Errorf("failed to publish notification: %v", err)
		}
	}

	if runErr != nil {
		var cerr *lifecycle.CreateSnapshotError
		if errors.As(runErr, &cerr) {
			return respond(500, responseBody{
				Message: cerr.Error(),
				Report:  report,
			})
		}
		return respond(500, responseBody{
			Message: runErr.Error(),
			Report:  report,
		})
	}

	return respond(200, responseBody{
		Message: "snapshot lifecycle completed",
		Summary: report.Summary(),
		Report:  report,
	})
}

func main() {
	mylog.InitLogger()
	lambda.Start(handler)
}
