package engine

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

var prefixPattern = regexp.MustCompile(`^[A-Z]{2,4}$`)

// CategoryCommand creates a category when ID is 0 and renames one otherwise
type CategoryCommand struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

func (e *Engine) RegisterCategory(s State, cmd CategoryCommand) (Transition, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Transition{}, shared.ErrInvalidName
	}
	prefix := strings.ToUpper(strings.TrimSpace(cmd.Prefix))
	if !prefixPattern.MatchString(prefix) {
		return Transition{}, shared.Reject(shared.ErrInvalidCategory, "prefix %q must be 2-4 letters", cmd.Prefix)
	}
	id := cmd.ID
	if id == 0 {
		id = nextKey(s.Categories)
	} else if _, ok := s.Categories[id]; !ok {
		return Transition{}, shared.Reject(shared.ErrInvalidCategory, "category %d", id)
	}
	for _, other := range s.Categories {
		if other.ID != id && other.Prefix == prefix {
			return Transition{}, shared.Reject(shared.ErrInvalidCategory, "prefix %s is used by %s", prefix, other.Name)
		}
	}

	next := s.fork()
	c := catalog.Category{ID: id, Name: name, Prefix: prefix}
	next.Categories[id] = c
	return Transition{State: next, Changes: Changes{Balances: s.Balances, Categories: []catalog.Category{c}}}, nil
}

// WorkerCommand creates a worker when ID is 0 and updates one otherwise
type WorkerCommand struct {
	ID   int64        `json:"id"`
	Name string       `json:"name"`
	Role catalog.Role `json:"role"`
}

func (e *Engine) RegisterWorker(s State, cmd WorkerCommand) (Transition, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Transition{}, shared.ErrInvalidName
	}
	if !cmd.Role.Valid() {
		return Transition{}, shared.Reject(shared.ErrInvalidRole, "%q", cmd.Role)
	}
	id := cmd.ID
	if id == 0 {
		id = nextKey(s.Workers)
	} else if _, ok := s.Workers[id]; !ok {
		return Transition{}, shared.Reject(shared.ErrWorkerNotFound, "worker %d", id)
	}

	next := s.fork()
	w := catalog.Worker{ID: id, Name: name, Role: cmd.Role}
	next.Workers[id] = w
	return Transition{State: next, Changes: Changes{Balances: s.Balances, Workers: []catalog.Worker{w}}}, nil
}

type DebtorCommand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RegisterDebtor creates or renames a debtor; the running debt is kept
func (e *Engine) RegisterDebtor(s State, cmd DebtorCommand) (Transition, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return Transition{}, shared.ErrInvalidName
	}
	d := catalog.Debtor{ID: cmd.ID, Name: name, TotalDebt: decimal.Zero}
	if d.ID == 0 {
		d.ID = nextKey(s.Debtors)
	} else {
		existing, ok := s.Debtors[d.ID]
		if !ok {
			return Transition{}, shared.Reject(shared.ErrDebtorNotFound, "debtor %d", d.ID)
		}
		d.TotalDebt = existing.TotalDebt
	}

	next := s.fork()
	next.Debtors[d.ID] = d
	return Transition{State: next, Changes: Changes{Balances: s.Balances, Debtors: []catalog.Debtor{d}}}, nil
}
