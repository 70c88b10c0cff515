// Package processor serializes every command through a single goroutine,
// the way the teacher's internal/processor does for the full Redis command
// set: a buffered channel of *Command drained by exactly one goroutine. For
// this spec that single-writer discipline is what lets the skiplist layer
// itself skip any synchronization (spec.md §5): no command ever overlaps
// another against the same store.
package processor

import (
	"slserver/internal/notify"
	"slserver/internal/skiplist"
	"slserver/internal/store"
	"slserver/internal/value"
)

// CommandType identifies which of the six SL verbs a Command carries.
type CommandType int

const (
	CmdSLAdd CommandType = iota
	CmdSLRem
	CmdSLAll
	CmdSLRange
	CmdSLSearch
	CmdSLCard
)

// ScoreMember is one raw (score, member) argument pair as received off the
// wire, not yet encoded (spec.md §4.9 "add").
type ScoreMember struct {
	Score  []byte
	Member []byte
}

// Pair is one (score, member) result row.
type Pair struct {
	Score  []byte
	Member []byte
}

// Command is one unit of work submitted to the processor.
type Command struct {
	Type     CommandType
	Key      string
	Pairs    []ScoreMember // CmdSLAdd
	Scores   [][]byte      // CmdSLRem
	Score    []byte        // CmdSLSearch
	Min, Max []byte        // CmdSLRange
	Response chan Result
}

// Result is the union of everything a command can reply with; exactly one
// of Int/Members/Err is meaningful per CommandType, the way the teacher's
// per-command Result structs (IntResult, StringSliceResult, ...) are each
// read by exactly one executor's caller.
type Result struct {
	Int       int
	Members   []Pair
	Err       error
	WrongType bool
}

// Processor runs every command against store on one goroutine.
type Processor struct {
	store       *store.Store
	bus         *notify.Bus
	commandChan chan *Command
	done        chan struct{}
	stopped     chan struct{}
}

// New creates a processor over st, firing keyspace events on bus, and
// starts its run loop.
func New(st *store.Store, bus *notify.Bus) *Processor {
	p := &Processor{
		store:       st,
		bus:         bus,
		commandChan: make(chan *Command, 1000),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	go p.run()
	return p
}

// Submit enqueues cmd for execution; the caller blocks on cmd.Response for
// the result.
func (p *Processor) Submit(cmd *Command) {
	p.commandChan <- cmd
}

// Shutdown stops the run loop after draining whatever is already queued,
// and returns once the loop has exited.
func (p *Processor) Shutdown() {
	close(p.done)
	<-p.stopped
}

func (p *Processor) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.done:
			p.drain()
			return
		case cmd := <-p.commandChan:
			p.execute(cmd)
		}
	}
}

func (p *Processor) drain() {
	for {
		select {
		case cmd := <-p.commandChan:
			p.execute(cmd)
		default:
			return
		}
	}
}

func (p *Processor) execute(cmd *Command) {
	switch cmd.Type {
	case CmdSLAdd:
		cmd.Response <- p.executeSLAdd(cmd)
	case CmdSLRem:
		cmd.Response <- p.executeSLRem(cmd)
	case CmdSLAll:
		cmd.Response <- p.executeSLAll(cmd)
	case CmdSLRange:
		cmd.Response <- p.executeSLRange(cmd)
	case CmdSLSearch:
		cmd.Response <- p.executeSLSearch(cmd)
	case CmdSLCard:
		cmd.Response <- p.executeSLCard(cmd)
	}
}

// executeSLAdd implements spec.md §4.9 "add": encode both values of each
// pair, delete any existing exact (score, member) match first so that
// re-adding an unchanged pair nets zero, insert, and count one addition per
// pair. The fix noted in spec.md §9 is applied here: Insert takes ownership
// of the references it's given, so no extra IncrRef call follows it the way
// the original's (buggy, ownership-confused) incrRefCount calls did.
func (p *Processor) executeSLAdd(cmd *Command) Result {
	c, err := p.store.LookupOrCreate(cmd.Key)
	if err != nil {
		return Result{Err: err, WrongType: true}
	}

	added := 0
	for _, pair := range cmd.Pairs {
		score := value.TryEncode(pair.Score)
		member := value.TryEncode(pair.Member)
		if c.Skiplist.DeleteByScoreMember(score, member) {
			added--
		}
		c.Skiplist.Insert(score, member)
		added++
	}

	if added != 0 {
		p.bus.Fire(notify.Event{Key: cmd.Key, Kind: notify.Modified})
	}
	return Result{Int: added}
}

// executeSLRem implements spec.md §4.9 "rem": delete every node in each
// requested score's equivalence class, deleting the whole container once it
// empties out.
func (p *Processor) executeSLRem(cmd *Command) Result {
	c, ok, err := p.store.LookupRead(cmd.Key)
	if err != nil {
		return Result{Err: err, WrongType: true}
	}
	if !ok {
		return Result{}
	}

	deleted := 0
	keyRemoved := false
	for _, raw := range cmd.Scores {
		score := value.TryEncode(raw)
		deleted += c.Skiplist.DeleteByScore(score)
		if c.Skiplist.Len() == 0 {
			p.store.Delete(cmd.Key)
			keyRemoved = true
			break
		}
	}

	if deleted > 0 {
		p.bus.Fire(notify.Event{Key: cmd.Key, Kind: notify.Modified})
		if keyRemoved {
			p.bus.Fire(notify.Event{Key: cmd.Key, Kind: notify.Deleted})
		}
	}
	return Result{Int: deleted}
}

// executeSLAll implements spec.md §4.9 "all": the entire level-0 chain, in
// order.
func (p *Processor) executeSLAll(cmd *Command) Result {
	c, ok, err := p.store.LookupRead(cmd.Key)
	if err != nil {
		return Result{Err: err, WrongType: true}
	}
	if !ok {
		return Result{}
	}

	var out []Pair
	for n := c.Skiplist.First(); n != nil; n = n.Next() {
		out = append(out, Pair{Score: n.Score().Bytes(), Member: n.Member().Bytes()})
	}
	return Result{Members: out}
}

// executeSLRange implements spec.md §4.9 "range": parse the range spec,
// locate both ends, and walk level-0 forward from the low end up to and
// including the high end.
func (p *Processor) executeSLRange(cmd *Command) Result {
	spec, err := skiplist.ParseRangeSpec(cmd.Min, cmd.Max)
	if err != nil {
		return Result{Err: err}
	}
	defer spec.Release()

	c, ok, err := p.store.LookupRead(cmd.Key)
	if err != nil {
		return Result{Err: err, WrongType: true}
	}
	if !ok {
		return Result{}
	}

	low := c.Skiplist.RangeLowEnd(spec)
	if low == nil {
		return Result{}
	}
	high := c.Skiplist.RangeHighEnd(spec)
	if high == nil {
		return Result{}
	}

	var out []Pair
	for n := low; n != nil; n = n.Next() {
		out = append(out, Pair{Score: n.Score().Bytes(), Member: n.Member().Bytes()})
		if n == high {
			break
		}
	}
	return Result{Members: out}
}

// executeSLSearch implements spec.md §4.9 "search": the entire equivalence
// class of one score.
func (p *Processor) executeSLSearch(cmd *Command) Result {
	c, ok, err := p.store.LookupRead(cmd.Key)
	if err != nil {
		return Result{Err: err, WrongType: true}
	}
	if !ok {
		return Result{}
	}

	score := value.TryEncode(cmd.Score)
	first := c.Skiplist.SearchSmallestNode(score)
	if first == nil {
		return Result{}
	}

	var out []Pair
	for n := first; n != nil && value.Compare(n.Score(), score) == 0; n = n.Next() {
		out = append(out, Pair{Score: n.Score().Bytes(), Member: n.Member().Bytes()})
	}
	return Result{Members: out}
}

// executeSLCard implements spec.md §4.9 "card": cardinality, 0 for an
// absent key.
func (p *Processor) executeSLCard(cmd *Command) Result {
	c, ok, err := p.store.LookupRead(cmd.Key)
	if err != nil {
		return Result{Err: err, WrongType: true}
	}
	if !ok {
		return Result{}
	}
	return Result{Int: c.Skiplist.Len()}
}
