// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
)

// Bucket locates a Backblaze B2 bucket and the credentials to write to it
type Bucket struct {
	ApplicationID  string `mapstructure:"application_id"`
	ApplicationKey string `mapstructure:"application_key"`
	Name           string `mapstructure:"bucket"`
}

// Configured reports whether credentials for the bucket are present
func (bucket Bucket) Configured() bool {
	return bucket.ApplicationID != "" && bucket.ApplicationKey != "" && bucket.Name != ""
}

// Upload copies fn into dirname of the bucket
func Upload(fn string, dest Bucket, dirname string) error {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          dest.ApplicationID,
		ApplicationKey: dest.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", dest.Name).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(dest.Name)
	if err != nil {
		log.Error().Err(err).Str("BucketName", dest.Name).Msg("lookup bucket failed")
		return err
	}

	if bucket == nil {
		log.Error().Str("BucketName", dest.Name).Msg("bucket does not exist")
		return fmt.Errorf("%w: %s", ErrBucketNotFound, dest.Name)
	}

	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	outName := fmt.Sprintf("%s/%s", dirname, filepath.Base(fn))

	file, err := bucket.UploadFile(outName, map[string]string{}, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", dest.Name).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
