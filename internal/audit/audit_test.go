// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"testing"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

type fakeBuckets struct {
	buckets    []string
	encryption map[string]*s3.GetBucketEncryptionOutput
	encErr     map[string]error
	acls       map[string]*s3.GetBucketAclOutput
}

func (f *fakeBuckets) ListBuckets(ctx context.Context, _ *s3.ListBucketsInput, _ ...func(*s3.Options)) (*s3.ListBucketsOutput, error) {
	out := &s3.ListBucketsOutput{}
	for _, name := range f.buckets {
		out.Buckets = append(out.Buckets, s3types.Bucket{
			Name:         awsv2.String(name),
			CreationDate: awsv2.Time(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		})
	}
	return out, nil
}

func (f *fakeBuckets) GetBucketEncryption(ctx context.Context, in *s3.GetBucketEncryptionInput, _ ...func(*s3.Options)) (*s3.GetBucketEncryptionOutput, error) {
	name := awsv2.ToString(in.Bucket)
	if err, ok := f.encErr[name]; ok {
		return nil, err
	}
	if out, ok := f.encryption[name]; ok {
		return out, nil
	}
	return nil, &smithy.GenericAPIError{Code: "ServerSideEncryptionConfigurationNotFoundError"}
}

func (f *fakeBuckets) GetBucketAcl(ctx context.Context, in *s3.GetBucketAclInput, _ ...func(*s3.Options)) (*s3.GetBucketAclOutput, error) {
	if out, ok := f.acls[awsv2.ToString(in.Bucket)]; ok {
		return out, nil
	}
	return &s3.GetBucketAclOutput{}, nil
}

func encryptedWith(algorithm s3types.ServerSideEncryption) *s3.GetBucketEncryptionOutput {
	return &s3.GetBucketEncryptionOutput{
		ServerSideEncryptionConfiguration: &s3types.ServerSideEncryptionConfiguration{
			Rules: []s3types.ServerSideEncryptionRule{
				{
					ApplyServerSideEncryptionByDefault: &s3types.ServerSideEncryptionByDefault{
						SSEAlgorithm: algorithm,
					},
				},
			},
		},
	}
}

func TestAuditSplitsEncryptedAndUnencrypted(t *testing.T) {
	fake := &fakeBuckets{
		buckets: []string{"good", "bad", "kms"},
		encryption: map[string]*s3.GetBucketEncryptionOutput{
			"good": encryptedWith(s3types.ServerSideEncryptionAes256),
			"kms":  encryptedWith(s3types.ServerSideEncryptionAwsKms),
		},
	}
	a := NewAuditor(fake)

	report, err := a.Audit(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, report.TotalBuckets)
	assert.Equal(t, 2, report.EncryptedBuckets)
	assert.Equal(t, 1, report.UnencryptedBuckets)
	assert.Len(t, report.Unencrypted, 1)
	assert.Equal(t, "bad", report.Unencrypted[0].Name)
	assert.Equal(t, "unencrypted", report.Unencrypted[0].EncryptionStatus)
}

func TestAuditInaccessibleBucket(t *testing.T) {
	fake := &fakeBuckets{
		buckets: []string{"locked", "bad"},
		encErr: map[string]error{
			"locked": &smithy.GenericAPIError{Code: "AccessDenied"},
		},
	}
	a := NewAuditor(fake)

	report, err := a.Audit(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, report.InaccessibleBuckets)
	assert.Equal(t, 1, report.UnencryptedBuckets)
	assert.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "locked")
}

func TestAuditPublicCheck(t *testing.T) {
	fake := &fakeBuckets{
		buckets: []string{"open"},
		acls: map[string]*s3.GetBucketAclOutput{
			"open": {
				Grants: []s3types.Grant{
					{
						Grantee:    &s3types.Grantee{Type: s3types.TypeGroup, URI: awsv2.String(allUsersURI)},
						Permission: s3types.PermissionRead,
					},
				},
			},
		},
	}
	a := NewAuditor(fake, WithPublicCheck(true))

	report, err := a.Audit(context.Background())
	assert.NoError(t, err)
	assert.Len(t, report.PublicBuckets, 1)
	assert.True(t, report.PublicBuckets[0].PublicRead)
	assert.False(t, report.PublicBuckets[0].PublicWrite)
}

func TestAuditPublicCheckIgnoresNonGroupGrants(t *testing.T) {
	fake := &fakeBuckets{
		buckets: []string{"owned"},
		acls: map[string]*s3.GetBucketAclOutput{
			"owned": {
				Grants: []s3types.Grant{
					{
						Grantee:    &s3types.Grantee{Type: s3types.TypeCanonicalUser},
						Permission: s3types.PermissionFullControl,
					},
				},
			},
		},
	}
	a := NewAuditor(fake, WithPublicCheck(true))

	report, err := a.Audit(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, report.PublicBuckets)
}

func TestReportSummary(t *testing.T) {
	report := &Report{
		TotalBuckets:       2,
		EncryptedBuckets:   1,
		UnencryptedBuckets: 1,
		Unencrypted: []BucketDetail{
			{Name: "bad", CreationDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		},
	}
	s := report.Summary()
	assert.Contains(t, s, "Unencrypted buckets:  1")
	assert.Contains(t, s, "- bad (created 2024-01-15)")
}
