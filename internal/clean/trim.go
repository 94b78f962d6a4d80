package clean

import "CaseMonitor/internal/domain"

// TrimToBudget walks entries in order and keeps them until the character
// budget is filled. The entry that meets or exceeds the budget is truncated
// by prefix to exactly fill the remainder; everything after it is dropped.
// Entries are never reordered. Empty bodies are skipped.
func TrimToBudget(entries []domain.Entry, budget int) []domain.Entry {
	trimmed := make([]domain.Entry, 0, len(entries))
	total := 0

	for _, entry := range entries {
		if entry.Data == "" {
			continue
		}
		if total >= budget {
			break
		}

		data := []rune(entry.Data)
		remaining := budget - total
		if len(data) > remaining {
			data = data[:remaining]
		}

		entry.Data = string(data)
		trimmed = append(trimmed, entry)
		total += len(data)

		if total >= budget {
			break
		}
	}

	return trimmed
}
