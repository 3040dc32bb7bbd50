package evalcontext

// ExecutionToken is a deferred unit of work pushed while evaluating and run
// at the next flush.
type ExecutionToken interface {
	Execute(op Operand, data PersistentData, p Player)
}

// TokenFunc adapts a function to ExecutionToken.
type TokenFunc func(op Operand, data PersistentData, p Player)

// Execute implements ExecutionToken.
func (f TokenFunc) Execute(op Operand, data PersistentData, p Player) { f(op, data, p) }

// Scope is the entity an ExecutionToken was produced by.
type Scope struct {
	Key        EvaluationKey
	Completion CompletionMode
}

type queued struct {
	token   ExecutionToken
	operand Operand
	scope   Scope
	track   EvaluationKey
}

// ExecutionTokens is the ordered stack tokens are pushed onto.
type ExecutionTokens struct {
	store   *PersistentStore
	tokens  []queued
	operand Operand
	scope   Scope
	track   EvaluationKey
	applied int
}

// NewExecutionTokens returns an empty stack whose tokens see data from store.
func NewExecutionTokens(store *PersistentStore) *ExecutionTokens {
	if store == nil {
		store = NewPersistentStore()
	}
	return &ExecutionTokens{store: store}
}

// SetOperand sets the operand recorded with subsequently added tokens.
func (e *ExecutionTokens) SetOperand(op Operand) { e.operand = op }

// SetTrack sets the track key recorded with subsequently added tokens.
func (e *ExecutionTokens) SetTrack(key EvaluationKey) { e.track = key }

// SetScope sets the entity scope recorded with subsequently added tokens.
func (e *ExecutionTokens) SetScope(s Scope) { e.scope = s }

// Add pushes t.
func (e *ExecutionTokens) Add(t ExecutionToken) {
	e.tokens = append(e.tokens, queued{token: t, operand: e.operand, scope: e.scope, track: e.track})
}

// Len returns the number of tokens waiting to be applied.
func (e *ExecutionTokens) Len() int { return len(e.tokens) }

// Applied returns the number of tokens applied since creation.
func (e *ExecutionTokens) Applied() int { return e.applied }

// Apply runs every queued token in push order and empties the stack. The
// pre-animated capture entity is set to each token's scope before it runs.
func (e *ExecutionTokens) Apply(p Player) {
	tokens := e.tokens
	e.tokens = nil
	var state PreAnimatedState
	if p != nil {
		state = p.PreAnimatedState()
	}
	for _, q := range tokens {
		if state != nil {
			state.SetCaptureEntity(q.scope.Key, q.scope.Completion)
		}
		q.token.Execute(q.operand, e.store.Scoped(q.track, q.scope.Key), p)
		e.applied++
	}
}
