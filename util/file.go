package util

import (
	"encoding/json"
	"os"
	"path"
)

// WriteJSON marshals v and writes it to savePath, creating missing folders
func WriteJSON(savePath string, v interface{}) error {
	if dir := path.Dir(savePath); dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return err
		}
	}
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(savePath, bs, 0644)
}
