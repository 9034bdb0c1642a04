package searchdb

import "time"

type Document struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Organization string    `json:"organization"`
	Repository   string    `json:"repository"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	URL          string    `json:"url"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Result struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Organization string  `json:"organization"`
	Repository   string  `json:"repository"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Score        float64 `json:"score"`
	UpdatedAt    string  `json:"updated_at"`
}

type Response struct {
	Results    []Result `json:"results"`
	Total      uint64   `json:"total"`
	MaxScore   float64  `json:"max_score"`
	SearchTime string   `json:"search_time"`
}
