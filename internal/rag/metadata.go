package rag

import "encoding/json"

// Store metadata is a flat map with the chunk text inlined under "text",
// mirroring how nearest-neighbor stores return matches without a separate
// document lookup.

func storeMetadata(c Chunk) map[string]any {
	m := map[string]any{}
	data, _ := json.Marshal(c.Metadata)
	_ = json.Unmarshal(data, &m)
	m["text"] = c.Text
	return m
}

func chunkFromMetadata(id string, values []float32, metadata map[string]any) Chunk {
	c := Chunk{ID: id, Embedding: values}
	if text, ok := metadata["text"].(string); ok {
		c.Text = text
	}
	data, _ := json.Marshal(metadata)
	_ = json.Unmarshal(data, &c.Metadata)
	return c
}
