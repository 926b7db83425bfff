package runtime

// ActiveConversation is a handle to a started conversation.
// It stays valid while its context runs the conversation it was issued for; afterwards
// every method is a silent no-op. The zero value is a stale handle.
type ActiveConversation struct {
	seq       uint64
	contextID uint64
	scheduler *Scheduler
}

// SequenceNumber identifies the conversation run the handle refers to.
func (a ActiveConversation) SequenceNumber() uint64 { return a.seq }

// ContextID identifies the pooled context running the conversation.
func (a ActiveConversation) ContextID() uint64 { return a.contextID }

// Stop ends the conversation. The listener receives OnConversationExit if it has not already.
func (a ActiveConversation) Stop() {
	if a.scheduler != nil {
		a.scheduler.Stop(a)
	}
}

// IsActive reports whether the conversation is still running.
func (a ActiveConversation) IsActive() bool {
	return a.scheduler != nil && a.scheduler.IsActive(a)
}

// SetFlag raises a flag in the conversation.
func (a ActiveConversation) SetFlag(flag int) {
	if a.scheduler != nil {
		a.scheduler.SetFlag(a, flag)
	}
}

// RegisterFlagListener subscribes fn to flags raised in the conversation.
func (a ActiveConversation) RegisterFlagListener(fn FlagListener) (ListenerID, bool) {
	if a.scheduler == nil {
		return 0, false
	}
	return a.scheduler.RegisterFlagListener(a, fn)
}

// UnregisterFlagListener removes a subscription made with RegisterFlagListener.
func (a ActiveConversation) UnregisterFlagListener(id ListenerID) {
	if a.scheduler != nil {
		a.scheduler.UnregisterFlagListener(a, id)
	}
}
