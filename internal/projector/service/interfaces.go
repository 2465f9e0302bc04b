package service

import (
	"context"

	"github.com/tienda-register-ledger/internal/domain/ledger"
)

// ArchiveService stores committed ledger events in the history archive
type ArchiveService interface {
	Archive(ctx context.Context, event *ledger.Event) error
}
