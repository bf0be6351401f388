package models

// AppendRequest is the body of POST /api/v1/sheets/{sheet}/rows.
type AppendRequest struct {
	Rows [][]string `json:"rows"`
}

// AppendResponse reports what the server did with an append.
type AppendResponse struct {
	Received  int   `json:"received"`
	Kept      int   `json:"kept"`
	Removed   int   `json:"removed"`
	Collapsed int   `json:"collapsed"`
	Inserted  int64 `json:"inserted"`
}
