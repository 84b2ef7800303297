package chat

import "github.com/quiverai/quiver/internal/entity"

// doneLine closes a chat stream and tells the client which
// conversation the exchange was recorded under.
type doneLine struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
}

func toConversationDTO(conv *entity.Conversation) entity.ConversationDTO {
	return entity.ConversationDTO{
		ID:        conv.ID,
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
	}
}

func toConversationDetailDTO(conv *entity.Conversation, msgs []*entity.Message) entity.ConversationDetailDTO {
	messages := make([]entity.MessageDTO, 0, len(msgs))
	for _, msg := range msgs {
		messages = append(messages, entity.MessageDTO{
			ID:        msg.ID,
			Role:      string(msg.Role),
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return entity.ConversationDetailDTO{
		ConversationDTO: toConversationDTO(conv),
		Messages:        messages,
	}
}
