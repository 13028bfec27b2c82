package core

// AgentDirectory indexes agent external ids to their current connection.
type AgentDirectory struct {
	conns map[string]string
}

// NewAgentDirectory constructs an empty directory.
func NewAgentDirectory() *AgentDirectory {
	return &AgentDirectory{conns: make(map[string]string)}
}

// Put records connID as the current connection of the agent, replacing any prior one.
func (d *AgentDirectory) Put(agentID, connID string) {
	d.conns[agentID] = connID
}

// Remove drops the agent's entry if it still points at connID.
// A stale connection going away must not erase a newer one after a reconnect.
func (d *AgentDirectory) Remove(agentID, connID string) bool {
	current, ok := d.conns[agentID]
	if !ok || current != connID {
		return false
	}
	delete(d.conns, agentID)
	return true
}

// Lookup returns the connection id currently held by the agent.
func (d *AgentDirectory) Lookup(agentID string) (string, bool) {
	connID, ok := d.conns[agentID]
	return connID, ok
}

// Len returns the number of agents with a live connection.
func (d *AgentDirectory) Len() int {
	return len(d.conns)
}
