package words

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/valyala/fastrand"

	"doodleit/internal/game"
)

var ErrNoWords = errors.New("word list is empty")

var (
	_ game.WordSource = (*List)(nil)
	_ game.WordSource = (*DB)(nil)
)

// List picks uniformly from a fixed dictionary.
type List struct {
	words []string
}

func NewList(words []string) (*List, error) {
	cleaned := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		cleaned = append(cleaned, word)
	}
	if len(cleaned) == 0 {
		return nil, ErrNoWords
	}
	return &List{words: cleaned}, nil
}

func (l *List) Next(_ context.Context) (string, error) {
	return l.words[fastrand.Uint32n(uint32(len(l.words)))], nil
}

func (l *List) Len() int {
	return len(l.words)
}

// FromFile reads one word per line; blank lines and lines starting with # are skipped.
func FromFile(path string) (*List, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open words file: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read words file %s: %w", path, err)
	}
	return NewList(words)
}

func Builtin() *List {
	list, err := NewList(builtinWords)
	if err != nil {
		panic(err)
	}
	return list
}

var builtinWords = []string{
	"apple", "banana", "guitar", "elephant", "rainbow", "bicycle", "volcano", "penguin",
	"lighthouse", "umbrella", "dragon", "pizza", "rocket", "castle", "snowman", "giraffe",
	"camera", "ladder", "octopus", "pyramid", "candle", "anchor", "butterfly", "tornado",
	"sandwich", "helicopter", "cactus", "mermaid", "igloo", "kangaroo", "treasure", "windmill",
	"backpack", "dinosaur", "hamburger", "telescope", "waterfall", "scissors", "spider", "bridge",
}
