package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/hainenber/sieve/internal/config"
	"github.com/hainenber/sieve/internal/decoder"
	"github.com/hainenber/sieve/internal/input"
	"github.com/hainenber/sieve/internal/modifier"
	"github.com/hainenber/sieve/internal/output"
	"github.com/hainenber/sieve/internal/parser"
	"github.com/hainenber/sieve/internal/sidelog"
	"github.com/hainenber/sieve/internal/telemetry/metrics"
	"github.com/rs/zerolog"
)

const initialLineBufferSize = 64 * 1024

// Summary counts what happened to input lines over a run
type Summary struct {
	Files            int
	Lines            int
	Blank            int
	Records          int
	Skipped          int
	SkippedByOutcome map[string]int
}

// Orchestrator drives lines from every input through parser, modifier and sink,
// strictly one line at a time so records keep input order
type Orchestrator struct {
	logger      zerolog.Logger
	input       *input.Input
	parser      *parser.Parser
	modifier    *modifier.Modifier
	sink        output.Sink
	maxLineSize int
	summary     Summary
}

type OrchestratorOption struct {
	Logger zerolog.Logger
	Config *config.Config
	Sink   output.Sink
}

func NewOrchestrator(options OrchestratorOption) (*Orchestrator, error) {
	conf := options.Config

	payloadDecoder := decoder.NewDecoder(decoder.DecoderOptions{
		Logger:  options.Logger.With().Str("source", "decoder").Logger(),
		SideLog: sidelog.NewFile(conf.Decoder.SideLogPath),
	})

	o := &Orchestrator{
		logger: options.Logger,
		input: input.NewInput(input.InputOptions{
			Logger: options.Logger,
			Paths:  conf.Input.Paths,
		}),
		parser: parser.NewParser(parser.ParserOptions{
			ErrorTypes: conf.Parser.ErrorTypes,
			Decoder:    payloadDecoder,
			Logger:     options.Logger.With().Str("source", "parser").Logger(),
		}),
		sink:        options.Sink,
		maxLineSize: conf.Input.MaxLineSize,
		summary: Summary{
			SkippedByOutcome: make(map[string]int),
		},
	}
	if o.maxLineSize <= 0 {
		o.maxLineSize = config.DefaultMaxLineSize
	}

	// Modifier stage is only wired in when there's something to modify
	if !conf.Modifier.IsEmpty() {
		mod, err := modifier.NewModifier(modifier.ModifierOptions{
			ModifierSettings: conf.Modifier,
			Logger:           options.Logger.With().Str("source", "modifier").Logger(),
		})
		if err != nil {
			return nil, err
		}
		o.modifier = mod
	}

	return o, nil
}

// Run processes every resolved input in order.
// Only unreadable inputs and sink failures abort the run.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	files, err := o.input.Resolve()
	if err != nil {
		return o.summary, err
	}

	for _, file := range files {
		if err := o.processFile(ctx, file); err != nil {
			return o.summary, err
		}
	}

	o.logger.Info().
		Int("files", o.summary.Files).
		Int("lines", o.summary.Lines).
		Int("records", o.summary.Records).
		Int("skipped", o.summary.Skipped).
		Msg("Finish processing inputs")

	return o.summary, nil
}

func (o *Orchestrator) processFile(ctx context.Context, file string) error {
	r, err := input.Open(file)
	if err != nil {
		return err
	}
	defer r.Close()

	o.logger.Info().Msgf("Processing %s", file)
	return o.ProcessReader(ctx, r, file)
}

// ProcessReader runs a single line source through the pipeline
func (o *Orchestrator) ProcessReader(ctx context.Context, r io.Reader, source string) error {
	o.summary.Files++

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(initialLineBufferSize, o.maxLineSize)), o.maxLineSize)

	lineNumber := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		lineNumber++
		o.summary.Lines++

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			o.summary.Blank++
			continue
		}
		metrics.Meters.IngestedLineCount.Add(ctx, 1)

		record, outcome := o.parser.Parse(line)
		if record == nil {
			o.summary.Skipped++
			o.summary.SkippedByOutcome[outcome.String()]++
			metrics.Meters.SkippedLineCount.Add(ctx, 1, metrics.OutcomeAttribute(outcome.String()))
			o.logger.Debug().Str("file", source).Int("line", lineNumber).Stringer("outcome", outcome).Msg("skipping line with undecodable payload")
			continue
		}
		record.Source = source
		record.LineNumber = lineNumber

		if o.modifier != nil {
			modified, err := o.modifier.Modify(record)
			if err != nil {
				o.logger.Error().Err(err).Str("file", source).Int("line", lineNumber).Msg("cannot modify record")
			}
			record = modified
		}

		if err := o.sink.Write(record); err != nil {
			return fmt.Errorf("cannot write record from %s:%d: %w", source, lineNumber, err)
		}
		o.summary.Records++
		metrics.Meters.ParsedRecordCount.Add(ctx, 1)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read input %s at line %d: %w", source, lineNumber+1, err)
	}
	return nil
}

func (o *Orchestrator) Summary() Summary {
	return o.summary
}
