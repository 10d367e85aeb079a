package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/hainenber/sieve/internal/decoder"
	"github.com/hainenber/sieve/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/valyala/fastjson"
)

var DefaultErrorTypes = []string{
	"IndexOutOfBoundsException",
	"NullPointerException",
	"KeyError",
	"TimeoutError",
}

var (
	timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{6}`)
	payloadPattern   = regexp.MustCompile(`BASE64:([A-Za-z0-9+/=]+)`)
	fragmentPattern  = regexp.MustCompile(`\{.*\}`)
)

// Parser extracts a Record out of one raw log line.
// It keeps a reusable fastjson parser so it must not be shared across goroutines.
type Parser struct {
	logger           zerolog.Logger
	decoder          *decoder.Decoder
	errorTypePattern *regexp.Regexp
	jsonParser       fastjson.Parser
}

type ParserOptions struct {
	ErrorTypes []string
	Decoder    *decoder.Decoder
	Logger     zerolog.Logger
}

func NewParser(opts ParserOptions) *Parser {
	errorTypes := lo.Uniq(lo.Without(opts.ErrorTypes, ""))
	if len(errorTypes) == 0 {
		errorTypes = DefaultErrorTypes
	}

	payloadDecoder := opts.Decoder
	if payloadDecoder == nil {
		payloadDecoder = decoder.NewDecoder(decoder.DecoderOptions{Logger: opts.Logger})
	}

	return &Parser{
		logger:           opts.Logger,
		decoder:          payloadDecoder,
		errorTypePattern: compileAlternation(errorTypes),
	}
}

func compileAlternation(tokens []string) *regexp.Regexp {
	quoted := lo.Map(tokens, func(token string, _ int) string {
		return regexp.QuoteMeta(token)
	})
	return regexp.MustCompile("(" + strings.Join(quoted, "|") + ")")
}

// Parse returns a nil Record when the line carries a payload that fails decoding.
// The outcome tells why, and is Ok for every accepted line.
func (p *Parser) Parse(line string) (*pipeline.Record, decoder.Outcome) {
	record := &pipeline.Record{
		Timestamp: timestampPattern.FindString(line),
		ErrorType: p.errorTypePattern.FindString(line),
	}

	if match := payloadPattern.FindStringSubmatch(line); match != nil {
		result := p.decoder.Decode(match[1])
		if result.Outcome != decoder.Ok {
			return nil, result.Outcome
		}
		record.PayloadData = result.Text
	}

	if fragment := fragmentPattern.FindString(line); fragment != "" {
		structured, err := p.parseFragment(fragment)
		if err != nil {
			p.logger.Debug().Err(err).Str("fragment", fragment).Msg("ignoring malformed JSON fragment")
		} else {
			record.StructuredData = structured
		}
	}

	record.Message = strings.TrimSpace(line)

	return record, decoder.Ok
}

func (p *Parser) parseFragment(fragment string) (map[string]any, error) {
	// Parse alone lets through number literals such as 01 or NaN which can't be re-encoded
	if err := fastjson.Validate(fragment); err != nil {
		return nil, err
	}
	parsed, err := p.jsonParser.Parse(fragment)
	if err != nil {
		return nil, err
	}
	return getKeyValuePairs(parsed)
}

func getKeyValuePairs(val *fastjson.Value) (map[string]any, error) {
	o, err := val.Object()
	if err != nil {
		return nil, err
	}

	kvPairs := make(map[string]any, o.Len())
	o.Visit(func(k []byte, v *fastjson.Value) {
		kvPairs[string(k)] = toNative(v)
	})

	return kvPairs, nil
}

// toNative copies a fastjson value out of the parser's arena.
// Numbers keep their literal text so large integers survive re-encoding.
func toNative(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeObject:
		nested, _ := getKeyValuePairs(v)
		return nested
	case fastjson.TypeArray:
		items, _ := v.Array()
		return lo.Map(items, func(item *fastjson.Value, _ int) any {
			return toNative(item)
		})
	case fastjson.TypeString:
		str, _ := v.StringBytes()
		return string(str)
	case fastjson.TypeNumber:
		return json.Number(v.String())
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}
