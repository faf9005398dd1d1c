// Package s3 backs blobstore.Store with Amazon S3. Uploads stream through
// the SDK's transfer manager; an optional DynamoDB catalog tracks the
// latest snapshot version per library, giving snapshot publication the
// compare-and-swap semantics S3 itself lacks.
package s3
