// export_test.go exports private functions for white-box testing.
package logger

// CollectErrorMessages returns the message of every level of the error chain.
func CollectErrorMessages(err error) []string {
	var messages []string
	for _, e := range collectErrorEntries(err) {
		messages = append(messages, e.message)
	}
	return messages
}

// CollectErrorMetadata returns the metadata of every level of the error chain.
func CollectErrorMetadata(err error) []map[string]any {
	var metadata []map[string]any
	for _, e := range collectErrorEntries(err) {
		metadata = append(metadata, e.metadata)
	}
	return metadata
}

// FormatMetadata exports formatMetadata for testing.
var FormatMetadata = formatMetadata
