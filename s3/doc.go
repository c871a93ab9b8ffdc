// Package s3 issues presigned S3 upload URLs. [Issuer] implements the
// [github.com/slackmgr/todos.UploadIssuer] interface.
//
// A presigned URL lets a client PUT one object directly into the attachment
// bucket without holding AWS credentials. Signing is a local operation; the
// bucket and object are not checked for existence.
//
//	issuer := s3.New(&awsCfg, s3.WithLogger(logger))
//	if err := issuer.Connect(); err != nil {
//	    return err
//	}
//	url, err := issuer.IssueUploadURL(ctx, "attachments", itemID, 5*time.Minute)
package s3
