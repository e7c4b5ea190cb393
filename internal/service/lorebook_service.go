package service

import (
	"context"

	"cardforge-be/internal/dto"
	"cardforge-be/internal/pkg/logger"
	"cardforge-be/pkg/document"
)

type ILorebookService interface {
	Export(ctx context.Context, req *dto.ExportLorebookRequest) (*dto.ExportLorebookResponse, error)
	Import(ctx context.Context, req *dto.ImportLorebookRequest) (*dto.ImportLorebookResponse, error)
}

type lorebookService struct {
	logger logger.ILogger
}

func NewLorebookService(logger logger.ILogger) ILorebookService {
	return &lorebookService{
		logger: logger,
	}
}

func (s *lorebookService) Export(ctx context.Context, req *dto.ExportLorebookRequest) (*dto.ExportLorebookResponse, error) {
	book := bookOf(req.Card)
	if book == nil {
		// A card without a book exports as an empty one.
		book = map[string]interface{}{
			"name":    "",
			"entries": []interface{}{},
		}
	} else {
		book = document.Clone(book)
	}

	return &dto.ExportLorebookResponse{
		Lorebook:   book,
		EntryCount: len(entriesOf(book)),
	}, nil
}

func (s *lorebookService) Import(ctx context.Context, req *dto.ImportLorebookRequest) (*dto.ImportLorebookResponse, error) {
	mode := req.MergeMode
	if mode == "" {
		mode = "replace"
	}

	updated := document.Clone(req.Card)
	existing := bookOf(updated)
	incoming := document.Clone(req.Lorebook)

	added := 0
	switch mode {
	case "merge":
		if existing == nil {
			document.SetByString(updated, "data.character_book", incoming, true)
			added = len(entriesOf(incoming))
			break
		}
		// Append incoming entries whose id is not already present.
		// Entries without a usable scalar id always append.
		current := entriesOf(existing)
		seen := make(map[interface{}]bool)
		for _, e := range current {
			if entry, ok := e.(map[string]interface{}); ok {
				if id, ok := entryId(entry); ok {
					seen[id] = true
				}
			}
		}
		for _, e := range entriesOf(incoming) {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			if id, ok := entryId(entry); ok && seen[id] {
				continue
			}
			current = append(current, entry)
			added++
		}
		existing["entries"] = current

	case "skip":
		if existing != nil && len(entriesOf(existing)) > 0 {
			break
		}
		document.SetByString(updated, "data.character_book", incoming, true)
		added = len(entriesOf(incoming))

	default: // replace
		document.SetByString(updated, "data.character_book", incoming, true)
		added = len(entriesOf(incoming))
	}

	total := len(entriesOf(bookOf(updated)))
	s.logger.Info("lorebook", "Lorebook imported", map[string]interface{}{
		"merge_mode":    mode,
		"entries_added": added,
		"entry_count":   total,
	})
	return &dto.ImportLorebookResponse{
		Card:         updated,
		EntryCount:   total,
		EntriesAdded: added,
	}, nil
}

func bookOf(card document.Document) map[string]interface{} {
	val, ok := document.GetByString(card, "data.character_book")
	if !ok {
		return nil
	}
	book, _ := val.(map[string]interface{})
	return book
}

// entryId returns the entry's id when it is a scalar usable as a dedupe
// key. Ids are int or string in well-formed books; a null, array, or
// object id makes the entry id-less so merge treats it as new.
func entryId(entry map[string]interface{}) (interface{}, bool) {
	switch id := entry["id"].(type) {
	case string:
		return id, true
	case float64:
		return id, true
	case int:
		return float64(id), true
	default:
		return nil, false
	}
}

func entriesOf(book map[string]interface{}) []interface{} {
	if book == nil {
		return nil
	}
	entries, _ := book["entries"].([]interface{})
	return entries
}
