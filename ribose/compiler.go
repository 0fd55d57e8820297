package ribose

import "fmt"

// effectorCall is one parsed tape1/tape2 pair attached to an edge: an
// effector name and, if the edge carried a matching tape2 entry, its
// raw parameter token (§3, §6.2).
type effectorCall struct {
	name  string
	token *Token
}

// edgeSpec is one parsed (From,To) automaton edge: the resolved input
// symbol ordinal (a raw byte 0..255, or a signal ordinal >= S0) and
// the effector calls attached to it, in tape order.
type edgeSpec struct {
	from, to int
	symbol   int
	calls    []effectorCall
}

// transducerSource is one AddTransducer call's parsed edges, still
// waiting for ModelCompiler.Build to size the final symbol axis and
// run the assembler over it.
type transducerSource struct {
	name   string
	states int
	edges  []edgeSpec
}

// ModelCompiler aggregates one or more automaton transition streams
// into ordinal-allocated, assembled Transducer blobs and the ordinal
// maps a Model needs (§4, §6.1). Effector and parameter ordinals are
// shared across every transducer added to one compiler, so the same
// paste(~field) parameter used by two transducers dedups to one
// model-level entry.
type ModelCompiler struct {
	targetClass string

	signalNames   []string
	signalOrdinal map[string]Ordinal

	fieldNames   []string
	fieldOrdinal map[string]Ordinal

	effectorNames   []string
	effectorOrdinal map[string]Ordinal

	transducerNames   []string
	transducerOrdinal map[string]Ordinal

	effectorParams [][]Token         // [effectorOrdinal][paramOrdinal]
	paramDedup     []map[string]Ordinal

	sources []*transducerSource
	errs    CompilationErrors
}

// NewModelCompiler seeds a compiler with the built-in signal, field,
// and effector ordinals (§3) for target class targetClass.
func NewModelCompiler(targetClass string) *ModelCompiler {
	c := &ModelCompiler{
		targetClass:       targetClass,
		signalOrdinal:     make(map[string]Ordinal),
		fieldOrdinal:      map[string]Ordinal{"": AnonymousField},
		fieldNames:        []string{""},
		effectorOrdinal:   make(map[string]Ordinal),
		transducerOrdinal: make(map[string]Ordinal),
	}
	for _, n := range []string{"nul", "nil", "eol", "eos"} {
		c.registerSignal(n)
	}
	for i, n := range builtinEffectorNames {
		c.effectorOrdinal[n] = Ordinal(i)
		c.effectorNames = append(c.effectorNames, n)
	}
	c.effectorParams = make([][]Token, builtinEffectorCount)
	c.paramDedup = make([]map[string]Ordinal, builtinEffectorCount)
	return c
}

func (c *ModelCompiler) registerSignal(name string) Ordinal {
	if ord, ok := c.signalOrdinal[name]; ok {
		return ord
	}
	ord := Ordinal(S0 + len(c.signalNames))
	c.signalNames = append(c.signalNames, name)
	c.signalOrdinal[name] = ord
	return ord
}

func (c *ModelCompiler) registerField(name string) Ordinal {
	if ord, ok := c.fieldOrdinal[name]; ok {
		return ord
	}
	ord := Ordinal(len(c.fieldNames))
	c.fieldNames = append(c.fieldNames, name)
	c.fieldOrdinal[name] = ord
	return ord
}

func (c *ModelCompiler) registerEffector(name string) Ordinal {
	if ord, ok := c.effectorOrdinal[name]; ok {
		return ord
	}
	ord := Ordinal(len(c.effectorNames))
	c.effectorNames = append(c.effectorNames, name)
	c.effectorOrdinal[name] = ord
	c.effectorParams = append(c.effectorParams, nil)
	c.paramDedup = append(c.paramDedup, nil)
	return ord
}

func (c *ModelCompiler) registerTransducer(name string) Ordinal {
	if ord, ok := c.transducerOrdinal[name]; ok {
		return ord
	}
	ord := Ordinal(len(c.transducerNames))
	c.transducerNames = append(c.transducerNames, name)
	c.transducerOrdinal[name] = ord
	return ord
}

func tokenKey(tok Token) string {
	switch tok.Kind {
	case TokenLiteral:
		return "L" + string(tok.Literal)
	default:
		return fmt.Sprintf("%d:%s", int(tok.Kind), tok.Name)
	}
}

// registerParam dedups tokens against effector's existing parameters,
// returning the existing ordinal on a content match or allocating a
// new one (§4.3 "routes through the same effector-parameter dedup
// table", §6.1 effector-parameter table).
func (c *ModelCompiler) registerParam(effector Ordinal, tokens []Token) Ordinal {
	if c.paramDedup[effector] == nil {
		c.paramDedup[effector] = make(map[string]Ordinal)
	}
	key := ""
	for _, tok := range tokens {
		key += tokenKey(tok) + "\x00"
	}
	if ord, ok := c.paramDedup[effector][key]; ok {
		return ord
	}
	ord := Ordinal(len(c.effectorParams[effector]))
	c.effectorParams[effector] = append(c.effectorParams[effector], tokens...)
	c.paramDedup[effector][key] = ord
	return ord
}

// AddTransducer parses one automaton's transitions into edges (§6.2),
// resolving every tape0 symbol and every tape1/tape2 effector call
// against this compiler's ordinal tables, and stores the result for
// ModelCompiler.Build to assemble. Malformed edges accumulate as
// CompilationErrors rather than aborting immediately, so a single
// build reports every problem it finds (§7).
func (c *ModelCompiler) AddTransducer(name string, header AutomatonHeader, transitions []Transition) {
	c.registerTransducer(name)
	type edgeKey struct{ from, to int }
	order := make([]edgeKey, 0)
	groups := make(map[edgeKey][]Transition)
	for _, tr := range transitions {
		if tr.IsFinal() {
			continue
		}
		k := edgeKey{tr.From, tr.To}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], tr)
	}

	src := &transducerSource{name: name, states: header.States}
	for _, k := range order {
		group := groups[k]
		var tape0 *Transition
		var tape1, tape2 []Transition
		for i := range group {
			switch group[i].Tape {
			case 0:
				if tape0 != nil {
					c.errs = append(c.errs, &CompilationError{Err: fmt.Errorf("transducer %q: duplicate tape-0 transition %d->%d", name, k.from, k.to)})
					continue
				}
				tape0 = &group[i]
			case 1:
				tape1 = append(tape1, group[i])
			case 2:
				tape2 = append(tape2, group[i])
			}
		}
		if tape0 == nil {
			c.errs = append(c.errs, &CompilationError{Err: fmt.Errorf("transducer %q: edge %d->%d has no tape-0 symbol", name, k.from, k.to)})
			continue
		}
		symbol := c.resolveInputSymbol(tape0.Symbol)
		calls := make([]effectorCall, len(tape1))
		for i, t1 := range tape1 {
			call := effectorCall{name: string(t1.Symbol)}
			if i < len(tape2) {
				tok := ParseToken(tape2[i].Symbol)
				call.token = &tok
			}
			calls[i] = call
		}
		src.edges = append(src.edges, edgeSpec{from: k.from, to: k.to, symbol: symbol, calls: calls})
	}
	c.sources = append(c.sources, src)
}

// resolveInputSymbol treats a single-byte tape-0 symbol as a literal
// input byte and anything else as a named signal (§3, §6.2); this is
// this implementation's own convention for representing signal edges
// in the automaton text format, which spec.md leaves unspecified.
func (c *ModelCompiler) resolveInputSymbol(symbol []byte) int {
	if len(symbol) == 1 {
		return int(symbol[0])
	}
	return int(c.registerSignal(string(symbol)))
}

// buildAction resolves one edge's effector calls to a matrix action
// (§3): no calls is NIL, one scalar call is its ordinal, one
// parameterised call is the packed (effector,parameter) reference, and
// more than one is a placeholder referencing seq, later rewritten by
// packVectors to the real negative byte offset (§4.4).
func (c *ModelCompiler) buildAction(calls []effectorCall, seqs *[][]vectorEntry) int32 {
	if len(calls) == 0 {
		return 1
	}
	if len(calls) == 1 {
		call := calls[0]
		effOrd := c.registerEffector(call.name)
		if call.token == nil {
			return int32(effOrd)
		}
		paramOrd := c.registerParam(effOrd, []Token{*call.token})
		return packParameterized(effOrd, paramOrd)
	}
	seq := make([]vectorEntry, 0, len(calls)*2)
	for _, call := range calls {
		effOrd := c.registerEffector(call.name)
		if call.token == nil {
			seq = append(seq, int32(effOrd))
			continue
		}
		paramOrd := c.registerParam(effOrd, []Token{*call.token})
		seq = append(seq, -int32(effOrd), int32(paramOrd))
	}
	id := len(*seqs)
	*seqs = append(*seqs, seq)
	return -int32(id + 1)
}

// Build assembles every added transducer and returns the finished,
// in-memory Model, or the accumulated CompilationErrors if any edge
// was malformed (§7).
func (c *ModelCompiler) Build() (*Model, error) {
	if err := c.errs.AsError(); err != nil {
		return nil, err
	}
	symbols := S0 + len(c.signalNames)

	transducers := make([]transducerEntry, len(c.transducerNames))
	for i, n := range c.transducerNames {
		transducers[i] = transducerEntry{name: n, offset: -1}
	}

	for _, src := range c.sources {
		m := newDenseMatrix(src.states, symbols)
		var seqs [][]vectorEntry
		for _, e := range src.edges {
			action := c.buildAction(e.calls, &seqs)
			m.set(e.from, e.symbol, cell{nextState: uint32(e.to), action: action})
		}

		eqv := reduceEquivalence(m)
		eqv = injectSuperinstructions(src.states, eqv, c.registerParam)
		eqv = pruneAndRenumber(src.states, eqv)
		eqv = secondaryReduce(prunedStateCount(eqv), symbols, eqv)

		filter := make([]int16, symbols)
		copy(filter, eqv.index)
		vector := packVectors(eqv.reduced, seqs)

		blob := &Transducer{
			name:        src.name,
			targetClass: c.targetClass,
			nEq:         eqv.nClasses,
			inputFilter: filter,
			matrix:      eqv.reduced,
			vector:      vector,
		}
		ord := c.transducerOrdinal[src.name]
		transducers[ord].blob = blob
		transducers[ord].state = blobReady
	}

	signals := make([]Bytes, len(c.signalNames))
	for i, n := range c.signalNames {
		signals[i] = NewBytes([]byte(n))
	}
	fields := make([]Bytes, len(c.fieldNames))
	for i, n := range c.fieldNames {
		fields[i] = NewBytes([]byte(n))
	}
	effectors := make([]Bytes, len(c.effectorNames))
	for i, n := range c.effectorNames {
		effectors[i] = NewBytes([]byte(n))
	}
	params := make([][]any, len(c.effectorParams))
	for i, toks := range c.effectorParams {
		list := make([]any, len(toks))
		for j, tok := range toks {
			list[j] = []Token{tok}
		}
		params[i] = list
	}

	model := &Model{
		version:            modelMagicVersion,
		targetClass:        c.targetClass,
		signals:            signals,
		fields:             fields,
		effectors:          effectors,
		transducers:        transducers,
		signalOrdinal:      c.signalOrdinal,
		fieldOrdinal:       c.fieldOrdinal,
		effectorOrdinal:    c.effectorOrdinal,
		transducerOrdinal:  c.transducerOrdinal,
		effectorParameters: params,
	}
	return model, nil
}

// prunedStateCount recovers the state count of a matrix after
// pruneAndRenumber, which does not carry it explicitly: the reduced
// matrix's row count is len(reduced)/nClasses.
func prunedStateCount(eqv equivalence) int {
	if eqv.nClasses == 0 {
		return 0
	}
	return len(eqv.reduced) / eqv.nClasses
}
