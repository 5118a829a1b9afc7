// Copyright 2021 The Sroiq Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package kb implements the KB facade: the lifecycle and status
// machine wrapping the term DAG, role box, datatype registry,
// completion graph and tableau engine, taxonomy builder, and query
// entry points. It is a thin, mostly-logicless layer over those
// packages and the only one in this module that accepts a logger
// directly; everything below it returns typed errors and structured
// stats instead.
package kb

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/go-air/sroiq/dag"
	"github.com/go-air/sroiq/datatype"
	"github.com/go-air/sroiq/depset"
	"github.com/go-air/sroiq/entity"
	"github.com/go-air/sroiq/kberr"
	"github.com/go-air/sroiq/kb/metrics"
	"github.com/go-air/sroiq/roles"
	"github.com/go-air/sroiq/tableau"
	"github.com/go-air/sroiq/taxonomy"
	"github.com/go-air/sroiq/z"
)

// Status is the KB's lifecycle stage:
// Empty -> Loading -> CChecked -> Classified -> Realised.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusCChecked
	StatusClassified
	StatusRealised
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "Empty"
	case StatusLoading:
		return "Loading"
	case StatusCChecked:
		return "CChecked"
	case StatusClassified:
		return "Classified"
	case StatusRealised:
		return "Realised"
	default:
		return "?"
	}
}

// atLeast reports whether s meets or exceeds min in the status order.
func (s Status) atLeast(min Status) bool { return s >= min }

// relatedFact is one relatedTo(a,R,b) ABox assertion.
type relatedFact struct {
	a, b *entity.Named
	role roles.ID
	dep  depset.Set
}

// dataFact is one dataValue(a,R,v) ABox assertion.
type dataFact struct {
	a    *entity.Named
	role roles.ID
	lit  string
	dep  depset.Set
}

// instanceFact is one instanceOf(a,C) ABox assertion.
type instanceFact struct {
	a   *entity.Named
	c   z.BP
	dep depset.Set
}

// KB is one description-logic knowledge base instance. Reasoning is
// single-threaded and cooperative; a KB is not safe for concurrent
// use and callers serialize their own access.
type KB struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	id      uuid.UUID

	d  *dag.DAG
	rb *roles.Box

	concepts     map[string]*entity.Named
	conceptOrder []string
	individuals  map[string]*entity.Named
	individualOrder []string
	dataRoles    map[roles.ID]string // role id -> declared datatype name
	datatypes    map[string]datatype.Kind
	datatypeOrder []string

	top, bottom *entity.Named

	globalAxioms []z.BP
	instances    []instanceFact
	relateds     []relatedFact
	dataFacts    []dataFact

	rbFinalized bool
	status      Status

	tax *taxonomy.Taxonomy

	interrupt    *int32
	ownInterrupt int32

	lastStats tableau.Stats
}

// New creates an empty KB.
func New(opts ...Option) *KB {
	d := dag.New()
	k := &KB{
		d:           d,
		rb:          roles.NewBox(d),
		concepts:    make(map[string]*entity.Named),
		individuals: make(map[string]*entity.Named),
		dataRoles:   make(map[roles.ID]string),
		datatypes:   make(map[string]datatype.Kind),
		id:          uuid.New(),
		status:      StatusEmpty,
	}
	k.top = entity.New("owl:Thing", -1)
	k.top.BP = z.TOP
	k.top.Primitive = false
	k.bottom = entity.New("owl:Nothing", -2)
	k.bottom.BP = z.BOTTOM
	k.bottom.Primitive = false
	k.interrupt = &k.ownInterrupt
	for _, o := range opts {
		o(k)
	}
	if k.log == nil {
		k.log = zap.NewNop()
	}
	k.log = k.log.With(zap.String("kb_id", k.id.String()))
	if k.metrics == nil {
		k.metrics = metrics.New(nil)
	}
	k.log.Debug("kb created")
	return k
}

// ID returns the KB's correlation id, attached to every log line and
// used as the kb_id metrics label so concurrent KB instances are
// distinguishable. persist.Save does not write it into a dump.
func (k *KB) ID() uuid.UUID { return k.id }

// Status returns the KB's current lifecycle stage.
func (k *KB) Status() Status { return k.status }

// Release discards the KB's state. The DAG, role box and ABox grow
// monotonically until release; there is no partial teardown.
func (k *KB) Release() {
	*k = KB{}
}

// Clear resets the KB to StatusEmpty, dropping every told axiom,
// fact, and the classified taxonomy, but keeps the logger/metrics/
// interrupt wiring from construction.
func (k *KB) Clear() {
	log, m, interrupt, id := k.log, k.metrics, k.interrupt, k.id
	d := dag.New()
	*k = KB{
		log:         log,
		metrics:     m,
		id:          id,
		interrupt:   interrupt,
		d:           d,
		rb:          roles.NewBox(d),
		concepts:    make(map[string]*entity.Named),
		individuals: make(map[string]*entity.Named),
		dataRoles:   make(map[roles.ID]string),
		datatypes:   make(map[string]datatype.Kind),
		status:      StatusEmpty,
	}
	k.top = entity.New("owl:Thing", -1)
	k.top.BP = z.TOP
	k.top.Primitive = false
	k.bottom = entity.New("owl:Nothing", -2)
	k.bottom.BP = z.BOTTOM
	k.bottom.Primitive = false
}

// SetInterrupt installs flag as the cooperative cancellation flag the
// tableau engine polls at every rule application.
func (k *KB) SetInterrupt(flag *int32) { k.interrupt = flag }

// Cancel sets the KB's own interrupt flag, requesting that any query
// in progress abort with a Cancelled outcome. It is a no-op if the KB
// was constructed with WithInterrupt (the caller owns that flag).
func (k *KB) Cancel() { atomic.StoreInt32(&k.ownInterrupt, 1) }

// TopConcept and BottomConcept expose the two entries every taxonomy
// carries regardless of what else has been told.
func (k *KB) TopConcept() *entity.Named    { return k.top }
func (k *KB) BottomConcept() *entity.Named { return k.bottom }

// --- Naming ---

// GetConcept looks up (or declares) the named concept, auto-vivifying
// its DAG leaf. Calling GetConcept twice with the same name returns
// the identical *entity.Named.
func (k *KB) GetConcept(name string) *entity.Named {
	if n, ok := k.concepts[name]; ok {
		return n
	}
	n := entity.New(name, int32(len(k.concepts)+1))
	n.BP = k.d.CName(name)
	k.concepts[name] = n
	k.conceptOrder = append(k.conceptOrder, name)
	return n
}

// GetIndividual looks up (or declares) the named individual.
func (k *KB) GetIndividual(name string) *entity.Named {
	if n, ok := k.individuals[name]; ok {
		return n
	}
	n := entity.New(name, int32(len(k.individuals)+1))
	n.BP = k.d.IName(name)
	k.individuals[name] = n
	k.individualOrder = append(k.individualOrder, name)
	return n
}

// GetRole looks up (or declares) a named object role.
func (k *KB) GetRole(name string) roles.ID {
	return k.rb.AddRole(name)
}

// GetDataRole looks up (or declares) a named data role, associating
// it with datatype kindName so DataValue can parse its literals. Data
// roles are treated as functional: the datatype appearance is
// per-node, not per role-edge-target, so a data property that
// admitted two distinct asserted values would never contradict the
// same individual's value restriction without this.
func (k *KB) GetDataRole(name, kindName string) roles.ID {
	id := k.rb.AddRole(name)
	k.rb.SetDataRole(id)
	k.rb.SetFunctional(id)
	k.dataRoles[id] = kindName
	return id
}

// GetDatatype registers the Kind that parses kindName's literals. The
// built-in integer/decimal kinds need no registration beyond this
// call with a datatype.IntegerKind{}/datatype.DecimalKind{}; a string
// enumeration is declared via datatype.NewStringEnumKind first.
func (k *KB) GetDatatype(kindName string, kind datatype.Kind) {
	if _, ok := k.datatypes[kindName]; !ok {
		k.datatypeOrder = append(k.datatypeOrder, kindName)
	}
	k.datatypes[kindName] = kind
}

// namedOfConcept resolves bp back to the Named concept that declared
// it, for taxonomy.Resolver. bp must be a CName leaf; TOP/BOTTOM are
// special-cased since they are never in the concepts map.
func (k *KB) namedOfConcept(bp z.BP) *entity.Named {
	if bp.Entry() == z.TOP.Entry() {
		return k.top
	}
	n := k.d.Get(bp)
	if n.Kind == dag.KindCName {
		if c, ok := k.concepts[n.Name]; ok {
			return c
		}
	}
	return k.top
}

func (k *KB) wrap(kind kberr.Kind, msg string) error {
	return kberr.New(kind, fmt.Sprintf("%s (kb %s)", msg, k.id))
}
