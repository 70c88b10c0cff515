package handler

import (
	"fmt"
	"strings"
	"time"

	"slserver/internal/processor"
	"slserver/internal/protocol"
)

// wrongArity formats the standard arity error, the way the teacher's
// zset_handlers.go does for every verb it serves.
func wrongArity(name string) []byte {
	return protocol.EncodeError(fmt.Sprintf("ERR wrong number of arguments for '%s' command", strings.ToLower(name)))
}

// submit blocks the calling connection goroutine until the single processor
// goroutine has executed cmd, per spec.md §5's single-writer model, but no
// longer than h.commandTimeout (server.Config's CommandTimeout, spec.md §5's
// "long-running commands are bounded" read as a hard per-command deadline on
// the connection side rather than inside the skiplist core itself).
func (h *CommandHandler) submit(cmd *processor.Command) processor.Result {
	cmd.Response = make(chan processor.Result, 1)
	h.processor.Submit(cmd)

	if h.commandTimeout <= 0 {
		return <-cmd.Response
	}

	timer := time.NewTimer(h.commandTimeout)
	defer timer.Stop()
	select {
	case res := <-cmd.Response:
		return res
	case <-timer.C:
		return processor.Result{Err: fmt.Errorf("command timed out after %s", h.commandTimeout)}
	}
}

// encodeWrongTypeOrErr turns a processor error into the wire reply: the
// shared wrong-type reply when the store rejected the key's type, a plain
// error reply otherwise (e.g. a malformed SLRANGE range spec).
func encodeWrongTypeOrErr(res processor.Result) []byte {
	if res.WrongType {
		return protocol.EncodeWrongType(res.Err)
	}
	return protocol.EncodeError(fmt.Sprintf("ERR %v", res.Err))
}

// encodePairs flattens score/member pairs into the alternating multi-reply
// shape spec.md §4.9 describes for all/range/search: a deferred-length
// handle holding 2*len(pairs) bulk-string elements.
func encodePairs(pairs []processor.Pair) []byte {
	d := protocol.NewDeferredMultiBulk()
	for _, p := range pairs {
		d.AppendBulkString(p.Score)
		d.AppendBulkString(p.Member)
	}
	return d.Finalize()
}

// handleSLAdd implements "SLADD key score member [score member ...]"
// (spec.md §4.9 "add"). At least one pair is required and the score/member
// arguments must come in pairs.
func (h *CommandHandler) handleSLAdd(cmd *protocol.Command) []byte {
	args := cmd.Args[1:]
	if len(args) < 3 || len(args)%2 != 1 {
		return wrongArity("sladd")
	}

	key := args[0]
	rest := args[1:]
	pairs := make([]processor.ScoreMember, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		pairs = append(pairs, processor.ScoreMember{
			Score:  []byte(rest[i]),
			Member: []byte(rest[i+1]),
		})
	}

	res := h.submit(&processor.Command{
		Type:  processor.CmdSLAdd,
		Key:   key,
		Pairs: pairs,
	})
	if res.Err != nil {
		return encodeWrongTypeOrErr(res)
	}
	return protocol.EncodeInteger(res.Int)
}

// handleSLRem implements "SLREM key score [score ...]" (spec.md §4.9 "rem").
func (h *CommandHandler) handleSLRem(cmd *protocol.Command) []byte {
	args := cmd.Args[1:]
	if len(args) < 2 {
		return wrongArity("slrem")
	}

	key := args[0]
	scores := make([][]byte, 0, len(args)-1)
	for _, s := range args[1:] {
		scores = append(scores, []byte(s))
	}

	res := h.submit(&processor.Command{
		Type:   processor.CmdSLRem,
		Key:    key,
		Scores: scores,
	})
	if res.Err != nil {
		return encodeWrongTypeOrErr(res)
	}
	return protocol.EncodeInteger(res.Int)
}

// handleSLAll implements "SLALL key" (spec.md §4.9 "all"). Unlike the
// source's slallCommand, this checks arity defensively (spec.md §9).
func (h *CommandHandler) handleSLAll(cmd *protocol.Command) []byte {
	args := cmd.Args[1:]
	if len(args) != 1 {
		return wrongArity("slall")
	}

	res := h.submit(&processor.Command{
		Type: processor.CmdSLAll,
		Key:  args[0],
	})
	if res.Err != nil {
		return encodeWrongTypeOrErr(res)
	}
	return encodePairs(res.Members)
}

// handleSLRange implements "SLRANGE key min max" (spec.md §4.9 "range").
func (h *CommandHandler) handleSLRange(cmd *protocol.Command) []byte {
	args := cmd.Args[1:]
	if len(args) != 3 {
		return wrongArity("slrange")
	}

	res := h.submit(&processor.Command{
		Type: processor.CmdSLRange,
		Key:  args[0],
		Min:  []byte(args[1]),
		Max:  []byte(args[2]),
	})
	if res.Err != nil {
		return encodeWrongTypeOrErr(res)
	}
	return encodePairs(res.Members)
}

// handleSLSearch implements "SLSEARCH key score" (spec.md §4.9 "search").
func (h *CommandHandler) handleSLSearch(cmd *protocol.Command) []byte {
	args := cmd.Args[1:]
	if len(args) != 2 {
		return wrongArity("slsearch")
	}

	res := h.submit(&processor.Command{
		Type:  processor.CmdSLSearch,
		Key:   args[0],
		Score: []byte(args[1]),
	})
	if res.Err != nil {
		return encodeWrongTypeOrErr(res)
	}
	return encodePairs(res.Members)
}

// handleSLCard implements "SLCARD key" (spec.md §4.9 "card"). The source
// emits cardinality as a double-formatted reply rather than an integer one;
// this keeps that quirk (spec.md §4.9, §7).
func (h *CommandHandler) handleSLCard(cmd *protocol.Command) []byte {
	args := cmd.Args[1:]
	if len(args) != 1 {
		return wrongArity("slcard")
	}

	res := h.submit(&processor.Command{
		Type: processor.CmdSLCard,
		Key:  args[0],
	})
	if res.Err != nil {
		return encodeWrongTypeOrErr(res)
	}
	return protocol.EncodeDouble(float64(res.Int))
}
