package example

type AgentStatus string

const (
	AgentStatusActive   AgentStatus = "active"
	AgentStatusTraining AgentStatus = "training"
)

type MessageRole string

const (
	MessageRoleUser MessageRole = "user"
)

type Agent struct {
	Status AgentStatus
}

type Message struct {
	Role MessageRole
}

func bad() {
	a := &Agent{}
	a.Status = "archived" // want "enum field Status assigned string literal"

	m := &Message{}
	m.Role = "system" // want "enum field Role assigned string literal"

	_ = Message{Role: "tool"} // want "enum field Role assigned string literal"
}

func good() {
	a := &Agent{}
	a.Status = AgentStatusTraining

	m := Message{Role: MessageRoleUser}
	_ = m
}

func alsoGood() {
	status := AgentStatusActive
	a := &Agent{Status: status}
	_ = a
}
