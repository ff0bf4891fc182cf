package domain

import "errors"

type Article struct {
	id          string
	title       string
	description string
	content     string
}

func NewArticle(id, title, description, content string) (*Article, error) {
	if id == "" {
		return nil, errors.New("article ID cannot be empty")
	}

	return &Article{
		id:          id,
		title:       title,
		description: description,
		content:     content,
	}, nil
}

func (a *Article) ID() string {
	return a.id
}

func (a *Article) Title() string {
	return a.title
}

func (a *Article) Description() string {
	return a.description
}

func (a *Article) Content() string {
	return a.content
}
