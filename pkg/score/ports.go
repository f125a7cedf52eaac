package score

// PortPolicy decides whether a destination port is unusual. Every port
// outside the common set is suspicious.
type PortPolicy struct {
	common map[int]struct{}
}

// NewPortPolicy copies the common set so that later changes to the
// caller's map cannot alter the policy
func NewPortPolicy(common map[int]struct{}) PortPolicy {
	c := make(map[int]struct{}, len(common))
	for port := range common {
		c[port] = struct{}{}
	}
	return PortPolicy{common: c}
}

// PolicyFromList builds a PortPolicy from a list of common ports
func PolicyFromList(ports []int) PortPolicy {
	c := make(map[int]struct{}, len(ports))
	for _, port := range ports {
		c[port] = struct{}{}
	}
	return PortPolicy{common: c}
}

// IsSuspicious reports whether port is outside the common set
func (p PortPolicy) IsSuspicious(port int) bool {
	_, ok := p.common[port]
	return !ok
}

// Pick returns suspicious when the port is suspicious, usual otherwise
func (p PortPolicy) Pick(port int, suspicious, usual float64) float64 {
	if p.IsSuspicious(port) {
		return suspicious
	}
	return usual
}

// SuspiciousCount returns how many ports are outside the common set
func (p PortPolicy) SuspiciousCount(ports []int) int {
	n := 0
	for _, port := range ports {
		if p.IsSuspicious(port) {
			n++
		}
	}
	return n
}
