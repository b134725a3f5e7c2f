package fulltext

import (
	"strings"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// identifierTokenizerName is the code-aware tokenizer registered below.
	identifierTokenizerName = "codanna_identifier"

	// stopFilterName drops programming-keyword noise from the token stream.
	stopFilterName = "codanna_stop"

	// identifierAnalyzerName composes the two into the analyzer applied to
	// every searchable text field.
	identifierAnalyzerName = "codanna_identifier_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(identifierTokenizerName, identifierTokenizerConstructor)
	_ = registry.RegisterTokenFilter(stopFilterName, stopFilterConstructor)
}

func identifierTokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &identifierTokenizer{}, nil
}

// identifierTokenizer tokenizes on code-identifier boundaries rather than
// plain word boundaries, so a search for "parse" matches "parseHTTPRequest".
type identifierTokenizer struct{}

func (t *identifierTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := tokenizeIdentifiers(text)

	stream := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0
	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), token)
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)
		stream = append(stream, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}
	return stream
}

func stopFilterConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.TokenFilter, error) {
	return &stopFilter{stopWords: BuildStopWordSet(DefaultStopWords)}, nil
}

type stopFilter struct {
	stopWords map[string]struct{}
}

func (f *stopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	out := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			out = append(out, token)
		}
	}
	return out
}

// registerIdentifierAnalyzer adds the code-identifier analyzer to mapping,
// composed from the tokenizer and stop filter registered in init above.
func registerIdentifierAnalyzer(indexMapping *mapping.IndexMappingImpl) error {
	return indexMapping.AddCustomAnalyzer(identifierAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": identifierTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			stopFilterName,
		},
	})
}
