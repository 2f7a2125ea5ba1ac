package entitygraph

// DetectCycles runs strongly-connected-component analysis over the
// fact/dimension → source-entity dependency subgraph. Any non-trivial
// component (more than one member, or a self-loop) is a cyclic entity
// dependency: a fatal model defect reported by Validate.
//
// The algorithm:
//  1. The dependency subgraph is collected during edge synthesis
//     (fact → grain sources and includes, dimension → source entity).
//  2. Tarjan's algorithm finds strongly connected components.
//  3. Each SCC with size > 1 or a self-loop is returned as a cycle.
//
// A DAG returns an empty list.
func (g *Graph) DetectCycles() [][]string {
	if len(g.deps) == 0 {
		return nil
	}

	sccs := tarjanSCC(g.deps)

	var cycles [][]string
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], g.deps)) {
			cycles = append(cycles, scc)
		}
	}
	return cycles
}

func hasSelfLoop(node string, deps map[string][]string) bool {
	for _, neighbor := range deps[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's
// algorithm. Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(deps map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range deps[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for node := range deps {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}
