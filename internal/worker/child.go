package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/xyproto/env/v2"

	"github.com/agbru/parbench/internal/bench"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/logging"
)

// IsChild reports whether the current process was started as a worker child.
func IsChild() bool {
	return env.Has(SpecEnv)
}

// RunChild executes the task described by SpecEnv and writes its progress
// and final result to out as JSON lines. A StopCommand line or EOF on in,
// SIGINT and SIGTERM all stop the task cooperatively; the partial result is
// still reported. A nil in is not watched. It returns the process exit code.
func RunChild(ctx context.Context, in io.Reader, out, errOut io.Writer) int {
	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	spec, err := decodeChildSpec(env.Str(SpecEnv))
	if err != nil {
		fmt.Fprintf(errOut, "worker: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	levelName := spec.LogLevel
	if levelName == "" {
		levelName = env.Str("PARBENCH_LOG_LEVEL", "warn")
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		level, _ = logging.ParseLevel("")
	}
	logger := logging.NewConsoleLogger(errOut, "worker", level).
		With(logging.Int("worker", spec.ID), logging.Int("pid", os.Getpid()))

	stop := bench.NewStopSignal()
	go func() {
		select {
		case <-ctx.Done():
			stop.Trigger()
		case <-stop.Done():
		}
	}()
	defer stop.Trigger()
	if in != nil {
		go watchStopCommands(in, stop)
	}

	bw := bufio.NewWriter(out)
	enc := json.NewEncoder(bw)
	emit := func(msg Message) error {
		if err := enc.Encode(msg); err != nil {
			return err
		}
		return bw.Flush()
	}

	task := spec.Task(stop.Stopped)
	task.OnProgress = func(n int64) {
		if err := emit(Message{Type: MessageProgress, Worker: spec.ID, Processed: n}); err != nil {
			logger.Debug("progress not delivered", logging.Err(err))
		}
	}

	var c bench.CountCollector
	outcome := task.Run(&c)
	logger.Debug("task finished",
		logging.Int64("processed", outcome.Processed),
		logging.Int64("matches", c.Len()),
		logging.String("reason", outcome.Reason.String()))

	if err := emit(Message{
		Type:      MessageResult,
		Worker:    spec.ID,
		Processed: outcome.Processed,
		Matches:   c.Len(),
		Reason:    outcome.Reason.String(),
	}); err != nil {
		logger.Error("result not delivered", err)
		return apperrors.ExitErrorWorker
	}
	return apperrors.ExitSuccess
}

// watchStopCommands triggers stop on the first StopCommand line or when in
// is exhausted, whichever comes first.
func watchStopCommands(in io.Reader, stop *bench.StopSignal) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == StopCommand {
			break
		}
	}
	stop.Trigger()
}
