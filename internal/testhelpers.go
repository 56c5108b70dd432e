package internal

// CreateTestState creates a conversation state with sample data
func CreateTestState() *ConversationState {
	return &ConversationState{
		Version: StateVersion,
		Messages: []Message{
			{
				ID:        "m1",
				Role:      RoleUser,
				Type:      DefaultMessageType,
				Content:   "Find my sunset photos",
				Timestamp: 1_700_000_000_000,
			},
			{
				ID:        "m2",
				Role:      RoleAI,
				Type:      DefaultMessageType,
				Content:   "I found 3 photos tagged sunset.",
				Timestamp: 1_700_000_001_000,
			},
		},
		TagSuggestions: []string{"sunset", "beach"},
		LastQuery:      "sunset",
	}
}

// CreateTestStateWithMessages creates a conversation state with custom messages
func CreateTestStateWithMessages(messages []Message) *ConversationState {
	return &ConversationState{
		Version:        StateVersion,
		Messages:       messages,
		TagSuggestions: []string{},
	}
}
