// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package audit reports S3 buckets without default server-side encryption,
// optionally flagging buckets with public ACL access.
package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

const allUsersURI = "http://acs.amazonaws.com/groups/global/AllUsers"

// BucketAPI is the subset of the S3 API the auditor needs.
type BucketAPI interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3.GetBucketEncryptionInput, optFns ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error)
	GetBucketAcl(ctx context.Context, params *s3.GetBucketAclInput, optFns ...func(*s3.Options)) (*s3.GetBucketAclOutput, error)
}

// EncryptionRule describes one default-encryption rule on a bucket.
type EncryptionRule struct {
	Algorithm        string `json:"algorithm"`
	KMSKeyID         string `json:"kms_key_id,omitempty"`
	BucketKeyEnabled bool   `json:"bucket_key_enabled"`
}

// BucketDetail is the audited view of one bucket.
type BucketDetail struct {
	Name             string           `json:"name"`
	CreationDate     time.Time        `json:"creation_date"`
	EncryptionStatus string           `json:"encryption_status"`
	EncryptionRules  []EncryptionRule `json:"encryption_rules,omitempty"`
	PublicRead       bool             `json:"public_read_access"`
	PublicWrite      bool             `json:"public_write_access"`
}

// Report aggregates the audit across all buckets in the account.
type Report struct {
	TotalBuckets        int            `json:"totalBuckets"`
	EncryptedBuckets    int            `json:"encryptedBuckets"`
	UnencryptedBuckets  int            `json:"unencryptedBuckets"`
	InaccessibleBuckets int            `json:"inaccessibleBuckets"`
	Unencrypted         []BucketDetail `json:"unencrypted"`
	PublicBuckets       []BucketDetail `json:"publicBuckets,omitempty"`
	Errors              []string       `json:"errors,omitempty"`
}

// Summary renders the report as free-form text.
func (r *Report) Summary() string {
	var b strings.Builder

	b.WriteString("S3 encryption audit\n")
	b.WriteString("===================\n")
	fmt.Fprintf(&b, "Total buckets:        %d\n", r.TotalBuckets)
	fmt.Fprintf(&b, "Encrypted buckets:    %d\n", r.EncryptedBuckets)
	fmt.Fprintf(&b, "Unencrypted buckets:  %d\n", r.UnencryptedBuckets)
	fmt.Fprintf(&b, "Inaccessible buckets: %d\n", r.InaccessibleBuckets)
	fmt.Fprintf(&b, "Public buckets:       %d\n", len(r.PublicBuckets))

	if len(r.Unencrypted) > 0 {
		b.WriteString("\nUnencrypted:\n")
		for _, bd := range r.Unencrypted {
			fmt.Fprintf(&b, "- %s (created %s)\n", bd.Name, bd.CreationDate.Format("2006-01-02"))
		}
	} else {
		b.WriteString("\nAll buckets have default encryption.\n")
	}

	for _, bd := range r.PublicBuckets {
		access := []string{}
		if bd.PublicRead {
			access = append(access, "READ")
		}
		if bd.PublicWrite {
			access = append(access, "WRITE")
		}
		fmt.Fprintf(&b, "PUBLIC: %s (%s)\n", bd.Name, strings.Join(access, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

// Auditor walks every bucket in the account.
type Auditor struct {
	client      BucketAPI
	publicCheck bool
}

type Option func(*Auditor)

// WithPublicCheck also inspects bucket ACLs for AllUsers grants.
func WithPublicCheck(enabled bool) Option {
	return func(a *Auditor) { a.publicCheck = enabled }
}

func NewAuditor(client BucketAPI, opts ...Option) *Auditor {
	a := &Auditor{client: client}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Audit lists all buckets and checks each for default encryption. A bucket
// we cannot read is counted as inaccessible and does not stop the walk.
func (a *Auditor) Audit(ctx context.Context) (*Report, error) {
	out, err := a.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}

	report := &Report{
		TotalBuckets: len(out.Buckets),
		Unencrypted:  []BucketDetail{},
	}
	log.Debugf("auditing %d buckets", report.TotalBuckets)

	for _, bucket := range out.Buckets {
		name := awsv2.ToString(bucket.Name)

		detail := BucketDetail{
			Name:         name,
			CreationDate: awsv2.ToTime(bucket.CreationDate).UTC(),
		}

		status, rules, err := a.checkEncryption(ctx, name)
		if err != nil {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "AccessDenied" || apiErr.ErrorCode() == "NoSuchBucket") {
				report.InaccessibleBuckets++
				msg := fmt.Sprintf("cannot access bucket %s: %s", name, apiErr.ErrorCode())
				log.Warnf("%s", msg)
				report.Errors = append(report.Errors, msg)
				continue
			}
			msg := fmt.Sprintf("error auditing bucket %s: %v", name, err)
			log.Errorf("%s", msg)
			report.Errors = append(report.Errors, msg)
			continue
		}

		detail.EncryptionStatus = status
		detail.EncryptionRules = rules

		if status == "encrypted" {
			report.EncryptedBuckets++
		} else {
			report.UnencryptedBuckets++
			report.Unencrypted = append(report.Unencrypted, detail)
			log.Warnf("bucket %s has no default encryption", name)
		}

		if a.publicCheck {
			read, write := a.checkPublicAccess(ctx, name, report)
			detail.PublicRead = read
			detail.PublicWrite = write
			if read || write {
				report.PublicBuckets = append(report.PublicBuckets, detail)
				log.Warnf("bucket %s has public access", name)
			}
		}
	}

	return report, nil
}

func (a *Auditor) checkEncryption(ctx context.Context, bucket string) (string, []EncryptionRule, error) {
	out, err := a.client.GetBucketEncryption(ctx, &s3.GetBucketEncryptionInput{
		Bucket: awsv2.String(bucket),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ServerSideEncryptionConfigurationNotFoundError" {
			// Expected for unencrypted buckets.
			return "unencrypted", nil, nil
		}
		return "", nil, err
	}

	var rules []EncryptionRule
	if out.ServerSideEncryptionConfiguration != nil {
		for _, rule := range out.ServerSideEncryptionConfiguration.Rules {
			er := EncryptionRule{
				BucketKeyEnabled: awsv2.ToBool(rule.BucketKeyEnabled),
			}
			if def := rule.ApplyServerSideEncryptionByDefault; def != nil {
				er.Algorithm = string(def.SSEAlgorithm)
				er.KMSKeyID = awsv2.ToString(def.KMSMasterKeyID)
			}
			rules = append(rules, er)
		}
	}

	return "encrypted", rules, nil
}

// checkPublicAccess inspects the bucket ACL for AllUsers grants. ACL read
// failures are recorded but never fail the audit.
func (a *Auditor) checkPublicAccess(ctx context.Context, bucket string, report *Report) (read, write bool) {
	acl, err := a.client.GetBucketAcl(ctx, &s3.GetBucketAclInput{Bucket: awsv2.String(bucket)})
	if err != nil {
		msg := fmt.Sprintf("could not check ACL for bucket %s: %v", bucket, err)
		log.Warnf("%s", msg)
		report.Errors = append(report.Errors, msg)
		return false, false
	}

	for _, grant := range acl.Grants {
		if grant.Grantee == nil || grant.Grantee.Type != s3types.TypeGroup {
			continue
		}
		if awsv2.ToString(grant.Grantee.URI) != allUsersURI {
			continue
		}
		switch grant.Permission {
		case s3types.PermissionRead:
			read = true
		case s3types.PermissionWrite:
			write = true
		case s3types.PermissionFullControl:
			read = true
			write = true
		}
	}

	return read, write
}
