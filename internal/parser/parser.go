package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"relo/internal/shared/observability"
)

type Parser struct {
	loader *GrammarLoader
}

func NewParser(loader *GrammarLoader) *Parser {
	return &Parser{loader: loader}
}

// SupportedFile reports whether path maps to a loaded grammar.
func (p *Parser) SupportedFile(path string) bool {
	return p.detectLanguage(path) != ""
}

func (p *Parser) ParseFile(path string, content []byte) (*File, error) {
	root, closer, err := p.parse(path, content)
	if err != nil {
		return nil, err
	}
	defer closer()

	ext := &tsExtractor{language: p.detectLanguage(path)}
	return ext.Extract(root, content, path)
}

// WithTree parses content and hands the root node to fn. The tree is released
// when fn returns, so nodes must not escape it.
func (p *Parser) WithTree(path string, content []byte, fn func(root *sitter.Node) error) error {
	root, closer, err := p.parse(path, content)
	if err != nil {
		return err
	}
	defer closer()
	return fn(root)
}

func (p *Parser) parse(path string, content []byte) (*sitter.Node, func(), error) {
	lang := p.detectLanguage(path)
	if lang == "" {
		return nil, nil, errors.New("unsupported language")
	}

	grammar := p.loader.Language(lang)
	if grammar == nil {
		return nil, nil, fmt.Errorf("grammar not loaded: %s", lang)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	start := time.Now()
	tree := parser.Parse(content, nil)
	observability.ParsingDuration.WithLabelValues(lang).Observe(time.Since(start).Seconds())
	if tree == nil {
		parser.Close()
		return nil, nil, errors.New("parse failed")
	}

	closer := func() {
		tree.Close()
		parser.Close()
	}
	return tree.RootNode(), closer, nil
}

func (p *Parser) detectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	default:
		return ""
	}
}
