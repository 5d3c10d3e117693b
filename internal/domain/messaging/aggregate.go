package messaging

import "sort"

// GroupByConversation folds a flat message snapshot into one summary per
// distinct chat GUID in a single pass. The last message is replaced only on a
// strictly greater timestamp, so timestamp ties keep the first-seen record.
// Participant handles and unread counts accumulate only from records not sent
// by the local user; the local user never appears in a participant set.
func GroupByConversation(msgs []Message) map[string]*ConversationSummary {
	summaries := make(map[string]*ConversationSummary)
	seen := make(map[string]map[string]bool)

	for _, msg := range msgs {
		if msg.ChatGUID == "" {
			continue
		}

		summary, ok := summaries[msg.ChatGUID]
		if !ok {
			summary = &ConversationSummary{
				ChatGUID:      msg.ChatGUID,
				LastMessage:   msg.Text,
				LastTimestamp: msg.Timestamp,
			}
			summaries[msg.ChatGUID] = summary
			seen[msg.ChatGUID] = make(map[string]bool)
		} else if msg.Timestamp.After(summary.LastTimestamp) {
			summary.LastMessage = msg.Text
			summary.LastTimestamp = msg.Timestamp
		}

		if msg.IsFromMe {
			continue
		}
		if msg.Sender != "" && !seen[msg.ChatGUID][msg.Sender] {
			seen[msg.ChatGUID][msg.Sender] = true
			summary.Participants = append(summary.Participants, msg.Sender)
		}
		if !msg.IsRead {
			summary.UnreadCount++
		}
	}

	return summaries
}

// ListConversations groups the snapshot, orders summaries by last message
// timestamp descending and applies offset/limit. The sort is stable, so
// conversations whose last timestamps tie stay in first-seen order.
func ListConversations(msgs []Message, limit, offset int) []*ConversationSummary {
	grouped := GroupByConversation(msgs)

	order := make([]string, 0, len(grouped))
	index := make(map[string]int, len(grouped))
	for _, msg := range msgs {
		if msg.ChatGUID == "" {
			continue
		}
		if _, ok := index[msg.ChatGUID]; !ok {
			index[msg.ChatGUID] = len(order)
			order = append(order, msg.ChatGUID)
		}
	}

	summaries := make([]*ConversationSummary, 0, len(order))
	for _, chatGUID := range order {
		summaries = append(summaries, grouped[chatGUID])
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastTimestamp.After(summaries[j].LastTimestamp)
	})

	if offset > 0 {
		if offset >= len(summaries) {
			return nil
		}
		summaries = summaries[offset:]
	}
	if limit > 0 && len(summaries) > limit {
		summaries = summaries[:limit]
	}
	return summaries
}

// BuildConversationDetail runs the same accumulation over the subset of the
// snapshot matching chatGUID, additionally tracking the total record count and
// whether any record is flagged as part of a group conversation. Returns false
// when no record matches.
func BuildConversationDetail(msgs []Message, chatGUID string) (*ConversationDetail, bool) {
	subset := make([]Message, 0, len(msgs))
	isGroup := false
	for _, msg := range msgs {
		if msg.ChatGUID != chatGUID {
			continue
		}
		subset = append(subset, msg)
		if msg.IsGroupChat {
			isGroup = true
		}
	}
	if len(subset) == 0 {
		return nil, false
	}

	summary := GroupByConversation(subset)[chatGUID]
	return &ConversationDetail{
		ConversationSummary: *summary,
		MessageCount:        len(subset),
		IsGroupChat:         isGroup,
	}, true
}
