// Package decoder turns base64 payloads embedded in log lines into text.
//
// Decoding is self-healing: stray characters are stripped and padding is
// normalized before a cheap syntactic pre-check. Failures are reported as
// Outcome values rather than errors so one bad payload never aborts a batch.
package decoder

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hainenber/sieve/internal/sidelog"
	"github.com/hainenber/sieve/internal/telemetry/metrics"
	"github.com/rs/zerolog"
)

type Outcome int

const (
	Ok Outcome = iota
	// Rejected candidates never looked like base64, decoding isn't attempted
	Rejected
	// DecodeError candidates passed the pre-check but the strict decoder refused them
	DecodeError
	// UnexpectedError covers everything else, e.g. decoded bytes that aren't UTF-8
	UnexpectedError
)

func (o Outcome) String() string {
	switch o {
	case Ok:
		return "ok"
	case Rejected:
		return "rejected"
	case DecodeError:
		return "decode_error"
	case UnexpectedError:
		return "unexpected_error"
	default:
		return "unknown"
	}
}

var (
	ErrDecode     = errors.New("base64 decoding error")
	ErrUnexpected = errors.New("unexpected payload error")
)

// Result of a single Decode call. Text is only set when Outcome is Ok.
type Result struct {
	Text    string
	Outcome Outcome
	Cleaned string
	Err     error
}

// Appender receives decoding failures worth inspecting later
type Appender interface {
	Append(entry sidelog.Entry) error
}

type Decoder struct {
	logger  zerolog.Logger
	sideLog Appender
}

type DecoderOptions struct {
	Logger  zerolog.Logger
	SideLog Appender
}

func NewDecoder(opts DecoderOptions) *Decoder {
	return &Decoder{
		logger:  opts.Logger,
		sideLog: opts.SideLog,
	}
}

func isAlphabet(r rune) bool {
	return (r >= 'A' && r <= 'Z') ||
		(r >= 'a' && r <= 'z') ||
		(r >= '0' && r <= '9') ||
		r == '+' || r == '/' || r == '='
}

// Clean strips characters outside the base64 alphabet then pads to a multiple of 4
func Clean(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if isAlphabet(r) {
			return r
		}
		return -1
	}, raw)

	if remainder := len(cleaned) % 4; remainder != 0 {
		cleaned += strings.Repeat("=", 4-remainder)
	}
	return cleaned
}

// IsWellFormed is a syntactic pre-check, cheaper than a full decode
func IsWellFormed(candidate string) bool {
	for _, r := range candidate {
		if !isAlphabet(r) {
			return false
		}
	}

	padding := len(candidate) - len(strings.TrimRight(candidate, "="))
	if padding > 2 {
		return false
	}
	if padding == 1 && len(candidate)%4 != 0 {
		return false
	}
	return true
}

// Decode never fails outright, the returned Result tells callers how far the candidate got
func (d *Decoder) Decode(raw string) (result Result) {
	result.Cleaned = Clean(raw)

	if !IsWellFormed(result.Cleaned) {
		d.logger.Debug().Str("data", result.Cleaned).Msg("skipping invalid base64 data")
		result.Outcome = Rejected
		return result
	}

	// Anything escaping the decode path is downgraded to an unexpected outcome
	defer func() {
		if r := recover(); r != nil {
			result = d.fail(result, UnexpectedError, fmt.Errorf("%w: %v", ErrUnexpected, r))
		}
	}()

	decoded, err := base64.StdEncoding.Strict().DecodeString(result.Cleaned)
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return d.fail(result, DecodeError, fmt.Errorf("%w: %w", ErrDecode, err))
		}
		return d.fail(result, UnexpectedError, fmt.Errorf("%w: %w", ErrUnexpected, err))
	}

	if !utf8.Valid(decoded) {
		return d.fail(result, UnexpectedError, fmt.Errorf("%w: decoded payload isn't valid UTF-8", ErrUnexpected))
	}

	result.Text = string(decoded)
	result.Outcome = Ok
	return result
}

func (d *Decoder) fail(result Result, outcome Outcome, err error) Result {
	result.Outcome = outcome
	result.Err = err

	d.logger.Warn().Err(err).Str("data", result.Cleaned).Msg("failed decoding base64 payload")

	if d.sideLog == nil {
		return result
	}
	if appendErr := d.sideLog.Append(sidelog.Entry{
		Outcome:   outcome.String(),
		Candidate: result.Cleaned,
		Cause:     err,
	}); appendErr != nil {
		d.logger.Error().Err(appendErr).Msg("cannot append to side log")
		return result
	}
	metrics.Meters.SideLogEntryCount.Add(context.Background(), 1)

	return result
}
