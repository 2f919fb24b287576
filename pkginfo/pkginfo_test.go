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
package pkginfo_test

import (
	"github.com/Donggyu-Kim1/stock-data/pkginfo"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Pkginfo", func() {
	BeforeEach(func() {
		version, commit := pkginfo.Version, pkginfo.CommitHash
		DeferCleanup(func() {
			pkginfo.Version = version
			pkginfo.CommitHash = commit
		})
	})

	It("reports dev when no version was linked in", func() {
		pkginfo.Version = ""
		Expect(pkginfo.Current(false).Version).To(Equal("dev"))
		Expect(pkginfo.UserAgent()).To(HavePrefix("stockdata/dev "))
	})

	It("uses the linked version and commit", func() {
		pkginfo.Version = "1.2.0"
		pkginfo.CommitHash = "abc1234"

		info := pkginfo.Current(false)
		Expect(info.Name).To(Equal("stockdata"))
		Expect(info.Deps).To(BeEmpty())
		Expect(pkginfo.BuildVersionString()).To(HavePrefix("stockdata 1.2.0 "))
		Expect(pkginfo.BuildVersionString()).To(ContainSubstring("Commit: abc1234"))
		Expect(pkginfo.UserAgent()).To(HavePrefix("stockdata/1.2.0 "))
	})
})
