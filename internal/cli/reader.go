package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/Veraticus/gradebook/internal/dataset"
	"github.com/Veraticus/gradebook/internal/features"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// NonBlockingReader provides context-aware input reading that can be interrupted.
type NonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

// ReadLine reads one line, respecting context cancellation. The line is
// trimmed, and a final line without a trailing newline is returned as is.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := r.reader.ReadString('\n')
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		// The read goroutine finishes on its own once input arrives.
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil && !(errors.Is(res.err, io.EOF) && res.value != "") {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// PromptInputs asks for every model input not already present in values and
// returns the completed record. Categorical inputs list their allowed values
// and are re-asked until one of them is given; numeric inputs are re-asked
// until they parse.
func PromptInputs(ctx context.Context, r *NonBlockingReader, w io.Writer, inputs []features.Input, values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(inputs))
	for k, v := range values {
		out[k] = v
	}

	for _, in := range inputs {
		if _, ok := out[in.Name]; ok {
			continue
		}
		for {
			label := in.Name
			if in.Categorical() {
				label = fmt.Sprintf("%s [%s]", in.Name, strings.Join(in.Categories, "|"))
			}
			if _, err := fmt.Fprint(w, FormatPrompt(label)); err != nil {
				return nil, fmt.Errorf("write prompt: %w", err)
			}

			answer, err := r.ReadLine(ctx)
			if err != nil {
				return nil, err
			}
			if problem := checkAnswer(in, answer); problem != "" {
				if _, err := fmt.Fprintln(w, FormatWarning(problem)); err != nil {
					return nil, fmt.Errorf("write prompt: %w", err)
				}
				continue
			}
			out[in.Name] = answer
			break
		}
	}
	return out, nil
}

func checkAnswer(in features.Input, answer string) string {
	if dataset.IsMissing(answer) {
		return "a value is required"
	}
	if in.Categorical() {
		if !slices.Contains(in.Categories, answer) {
			return fmt.Sprintf("%q is not one of %s", answer, strings.Join(in.Categories, ", "))
		}
		return ""
	}
	if _, err := dataset.ParseFloat(answer); err != nil {
		return fmt.Sprintf("%q is not a number", answer)
	}
	return ""
}
