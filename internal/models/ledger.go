package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/crewlog/internal/constants"
	apperrors "github.com/julianstephens/crewlog/internal/errors"
)

type LedgerKind string

const (
	KindStandardExchange LedgerKind = "standard_exchange"
	KindExtraExchange    LedgerKind = "extra_exchange"
	KindCustomExchange   LedgerKind = "custom_exchange"
	KindProvideExtra     LedgerKind = "provide_extra"
	KindProvideCustom    LedgerKind = "provide_custom"
)

// Addable reports whether entries of this kind can be added or removed by the
// operative. Standard exchanges are derived from unit config and fixed in membership.
func (k LedgerKind) Addable() bool {
	switch k {
	case KindExtraExchange, KindCustomExchange, KindProvideExtra, KindProvideCustom:
		return true
	}
	return false
}

// FromCatalog reports whether entries of this kind reference a catalog item.
func (k LedgerKind) FromCatalog() bool {
	return k == KindStandardExchange || k == KindExtraExchange || k == KindProvideExtra
}

func ParseLedgerKind(s string) (LedgerKind, error) {
	switch k := LedgerKind(strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))); k {
	case KindStandardExchange, KindExtraExchange, KindCustomExchange, KindProvideExtra, KindProvideCustom:
		return k, nil
	}
	return "", apperrors.Invalid("kind", "unknown ledger entry kind %q", s)
}

// ItemRef points at a catalog item, or carries only a free-text name.
type ItemRef struct {
	EquipmentID string `json:"equipment_id,omitempty"`
	Name        string `json:"name"`
}

func (r ItemRef) IsCatalog() bool { return r.EquipmentID != "" }

// LedgerEntry is one line of the equipment ledger. The set of implementations
// is closed: StandardExchange, ExtraExchange, CustomExchange and Provide.
type LedgerEntry interface {
	EntryID() string
	Kind() LedgerKind
	Ref() ItemRef
	Qty() int
	withQty(q int) LedgerEntry
}

// StandardExchange swaps dirty for clean against the unit's standard quantity.
type StandardExchange struct {
	ID                string
	Item              ItemRef
	ExpectedQuantity  int
	ExchangedQuantity int
}

func (e StandardExchange) EntryID() string  { return e.ID }
func (e StandardExchange) Kind() LedgerKind { return KindStandardExchange }
func (e StandardExchange) Ref() ItemRef     { return e.Item }
func (e StandardExchange) Qty() int         { return e.ExchangedQuantity }
func (e StandardExchange) withQty(q int) LedgerEntry {
	e.ExchangedQuantity = q
	return e
}

// ExtraExchange is an ad hoc swap of a catalog item not covered by unit config.
type ExtraExchange struct {
	ID       string
	Item     ItemRef
	Quantity int
}

func (e ExtraExchange) EntryID() string  { return e.ID }
func (e ExtraExchange) Kind() LedgerKind { return KindExtraExchange }
func (e ExtraExchange) Ref() ItemRef     { return e.Item }
func (e ExtraExchange) Qty() int         { return e.Quantity }
func (e ExtraExchange) withQty(q int) LedgerEntry {
	e.Quantity = q
	return e
}

// CustomExchange is a swap of an item that is not in the catalog.
type CustomExchange struct {
	ID       string
	Item     ItemRef
	Quantity int
}

func (e CustomExchange) EntryID() string  { return e.ID }
func (e CustomExchange) Kind() LedgerKind { return KindCustomExchange }
func (e CustomExchange) Ref() ItemRef     { return e.Item }
func (e CustomExchange) Qty() int         { return e.Quantity }
func (e CustomExchange) withQty(q int) LedgerEntry {
	e.Quantity = q
	return e
}

type ProvideSource string

const (
	ProvideExtra  ProvideSource = "extra"
	ProvideCustom ProvideSource = "custom"
)

// Provide records items supplied beyond the contract. It is the only billable kind.
type Provide struct {
	ID       string
	Source   ProvideSource
	Item     ItemRef
	Quantity int
}

func (e Provide) EntryID() string { return e.ID }
func (e Provide) Kind() LedgerKind {
	if e.Source == ProvideCustom {
		return KindProvideCustom
	}
	return KindProvideExtra
}
func (e Provide) Ref() ItemRef { return e.Item }
func (e Provide) Qty() int     { return e.Quantity }
func (e Provide) withQty(q int) LedgerEntry {
	e.Quantity = q
	return e
}

// NewLedgerEntry builds an operative-added entry of the given kind.
func NewLedgerEntry(id string, kind LedgerKind, item ItemRef) (LedgerEntry, error) {
	if !kind.Addable() {
		return nil, apperrors.Invalid("kind", "%s entries cannot be added by hand", kind)
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, apperrors.Invalid("item", "name cannot be empty")
	}
	if kind.FromCatalog() && !item.IsCatalog() {
		return nil, apperrors.Invalid("item", "%s entries must reference a catalog item", kind)
	}
	if !kind.FromCatalog() {
		item.EquipmentID = ""
	}
	switch kind {
	case KindExtraExchange:
		return ExtraExchange{ID: id, Item: item}, nil
	case KindCustomExchange:
		return CustomExchange{ID: id, Item: item}, nil
	case KindProvideExtra:
		return Provide{ID: id, Source: ProvideExtra, Item: item}, nil
	default:
		return Provide{ID: id, Source: ProvideCustom, Item: item}, nil
	}
}

// ClampQuantity bounds q to the allowed ledger range.
func ClampQuantity(q int) int {
	if q < constants.MinLedgerQuantity {
		return constants.MinLedgerQuantity
	}
	if q > constants.MaxLedgerQuantity {
		return constants.MaxLedgerQuantity
	}
	return q
}

type Ledger []LedgerEntry

func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	return append(Ledger(nil), l...)
}

func (l Ledger) Index(id string) int {
	for i, e := range l {
		if e.EntryID() == id {
			return i
		}
	}
	return -1
}

// SetQuantity clamps qty and writes it to the entry's mutable quantity.
func (l Ledger) SetQuantity(id string, qty int) error {
	i := l.Index(id)
	if i < 0 {
		return apperrors.Invalid("entry", "no ledger entry %q", id)
	}
	l[i] = l[i].withQty(ClampQuantity(qty))
	return nil
}

// Remove drops an operative-added entry. Standard exchanges cannot be removed.
func (l Ledger) Remove(id string) (Ledger, error) {
	i := l.Index(id)
	if i < 0 {
		return l, apperrors.Invalid("entry", "no ledger entry %q", id)
	}
	if !l[i].Kind().Addable() {
		return l, apperrors.Invalid("entry", "standard exchange %q cannot be removed", l[i].Ref().Name)
	}
	out := make(Ledger, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...), nil
}

// HasActivity reports whether any entry, of any kind, has a non-zero quantity.
func (l Ledger) HasActivity() bool {
	for _, e := range l {
		if e.Qty() > 0 {
			return true
		}
	}
	return false
}

// Billable returns the Provide entries. Exchange entries never reach billing.
func (l Ledger) Billable() []Provide {
	var out []Provide
	for _, e := range l {
		switch v := e.(type) {
		case Provide:
			out = append(out, v)
		case StandardExchange, ExtraExchange, CustomExchange:
			// audit trail only
		default:
			panic(fmt.Sprintf("models: unhandled ledger entry %T", e))
		}
	}
	return out
}

func (l Ledger) Validate() error {
	seen := make(map[string]bool, len(l))
	for _, e := range l {
		if e == nil {
			return apperrors.Invalid("ledger", "nil entry")
		}
		if e.EntryID() == "" {
			return apperrors.Invalid("ledger", "entry %q has no id", e.Ref().Name)
		}
		if seen[e.EntryID()] {
			return apperrors.Invalid("ledger", "duplicate entry id %q", e.EntryID())
		}
		seen[e.EntryID()] = true
		if q := e.Qty(); q < constants.MinLedgerQuantity || q > constants.MaxLedgerQuantity {
			return apperrors.Invalid("ledger.quantity", "%s: %d is outside %d..%d",
				e.Ref().Name, q, constants.MinLedgerQuantity, constants.MaxLedgerQuantity)
		}
		if strings.TrimSpace(e.Ref().Name) == "" {
			return apperrors.Invalid("ledger.item", "entry %q has no item name", e.EntryID())
		}
	}
	return nil
}

// ledgerEnvelope is the tagged wire form of a single entry.
type ledgerEnvelope struct {
	Kind             LedgerKind `json:"kind"`
	ID               string     `json:"id"`
	Item             ItemRef    `json:"item"`
	Quantity         int        `json:"quantity"`
	ExpectedQuantity int        `json:"expected_quantity,omitempty"`
}

func (l Ledger) MarshalJSON() ([]byte, error) {
	out := make([]ledgerEnvelope, 0, len(l))
	for _, e := range l {
		env := ledgerEnvelope{Kind: e.Kind(), ID: e.EntryID(), Item: e.Ref(), Quantity: e.Qty()}
		if std, ok := e.(StandardExchange); ok {
			env.ExpectedQuantity = std.ExpectedQuantity
		}
		out = append(out, env)
	}
	return json.Marshal(out)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var envs []ledgerEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return err
	}
	out := make(Ledger, 0, len(envs))
	for _, env := range envs {
		switch env.Kind {
		case KindStandardExchange:
			out = append(out, StandardExchange{ID: env.ID, Item: env.Item, ExpectedQuantity: env.ExpectedQuantity, ExchangedQuantity: env.Quantity})
		case KindExtraExchange:
			out = append(out, ExtraExchange{ID: env.ID, Item: env.Item, Quantity: env.Quantity})
		case KindCustomExchange:
			out = append(out, CustomExchange{ID: env.ID, Item: env.Item, Quantity: env.Quantity})
		case KindProvideExtra:
			out = append(out, Provide{ID: env.ID, Source: ProvideExtra, Item: env.Item, Quantity: env.Quantity})
		case KindProvideCustom:
			out = append(out, Provide{ID: env.ID, Source: ProvideCustom, Item: env.Item, Quantity: env.Quantity})
		default:
			return fmt.Errorf("unknown ledger entry kind %q", env.Kind)
		}
	}
	*l = out
	return nil
}
