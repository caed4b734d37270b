package secondary

import "context"

type QuizUpdateFeed interface {
	// Subscribe delivers the ids of updated assessments until ctx is done
	Subscribe(ctx context.Context) (<-chan string, error)
}
