package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/lecternhq/lectern/internal/models"
)

var (
	_ list.Item = seriesItem{}
	_ list.Item = sermonItem{}
)

// seriesItem wraps [models.SeriesRecord] to implement [list.Item].
type seriesItem struct {
	series *models.SeriesRecord
}

func (i seriesItem) FilterValue() string { return i.series.Title }
func (i seriesItem) Title() string       { return i.series.Title }
func (i seriesItem) Description() string {
	desc := string(i.series.Status)
	if i.series.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.series.Description)
	}
	if i.series.Dirty {
		desc = fmt.Sprintf("%s • pending sync", desc)
	}
	return desc
}

// sermonItem wraps [models.SermonRecord] to implement [list.Item].
type sermonItem struct {
	sermon *models.SermonRecord
}

func (i sermonItem) FilterValue() string { return i.sermon.Title }
func (i sermonItem) Title() string       { return i.sermon.Title }
func (i sermonItem) Description() string {
	desc := string(i.sermon.Status)
	if i.sermon.Scripture != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.sermon.Scripture)
	}
	if i.sermon.Date != nil {
		desc = fmt.Sprintf("%s • %s", desc, i.sermon.Date.Format("2006-01-02"))
	}
	return desc
}
