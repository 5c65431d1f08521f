/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package version

import "testing"

func TestGetVersionFromLdflags(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "v1.2.3"
	if got := GetVersion(); got != "v1.2.3" {
		t.Errorf("GetVersion() = %q, want the ldflags value", got)
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	for _, key := range []string{"version", "gitCommit", "buildTime"} {
		if _, ok := info[key]; !ok {
			t.Errorf("GetBuildInfo() missing %q", key)
		}
	}
	if info["version"] != GetVersion() {
		t.Errorf("version field = %q, want %q", info["version"], GetVersion())
	}
}
