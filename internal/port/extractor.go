package port

import "context"

// TextExtractor turns an uploaded screenshot into raw text. Returning empty
// text is a normal outcome; domain.ErrImageUnreadable is reserved for
// structurally invalid input. Implementations do not retry; retry policy
// belongs to the orchestrator.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}
