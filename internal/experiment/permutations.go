package experiment

// Sweep holds the parameter sets whose Cartesian product is run.
type Sweep struct {
	Topics      []Topic
	Rates       []int
	Publishers  []int
	Subscribers []int

	// Each enabled flag doubles the sweep: every point runs with and without it.
	Reliability bool
	Durability  bool
	Security    bool
}

// Count returns the number of experiments Generate will produce.
func (s Sweep) Count() int {
	n := len(s.Topics) * len(s.Rates) * len(s.Publishers) * len(s.Subscribers)
	for _, on := range []bool{s.Reliability, s.Durability, s.Security} {
		if on {
			n *= 2
		}
	}
	return n
}

// Generate expands the sweep in product order, topics outermost and security innermost.
// Duplicate inputs produce duplicate experiments.
func (s Sweep) Generate(parent, prefix string) []*Experiment {
	reliable := choices(s.Reliability)
	transient := choices(s.Durability)
	secure := choices(s.Security)

	out := make([]*Experiment, 0, s.Count())
	for _, topic := range s.Topics {
		for _, rate := range s.Rates {
			for _, pubs := range s.Publishers {
				for _, subs := range s.Subscribers {
					for _, r := range reliable {
						for _, d := range transient {
							for _, sec := range secure {
								out = append(out, New(parent, prefix, Params{
									Topic:       topic,
									Rate:        rate,
									Publishers:  pubs,
									Subscribers: subs,
									Reliable:    r,
									Transient:   d,
									Secure:      sec,
								}))
							}
						}
					}
				}
			}
		}
	}
	return out
}

// choices returns {off} or {off, on}.
func choices(enabled bool) []bool {
	if enabled {
		return []bool{false, true}
	}
	return []bool{false}
}
