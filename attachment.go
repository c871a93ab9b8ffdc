package todos

// AttachmentURL returns the permanent public URL of the object stored under
// itemID in bucket. It performs no validation and no network call; the URL
// only resolves if the object was uploaded to the same bucket and key.
func AttachmentURL(bucket, itemID string) string {
	return "https://" + bucket + ".s3.amazonaws.com/" + itemID
}
