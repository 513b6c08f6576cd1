// Copyright (C) 2025 Brigham Skarda

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package uci drives a UCI (Universal Chess Interface) compatible chess
// engine as a subprocess, the way a GUI would: starting it, negotiating
// options, feeding it positions, and reading back principal variations and
// evaluations. See [here] for the protocol.
//
// [here]: https://www.shredderchess.com/download/div/uci.zip
package uci
