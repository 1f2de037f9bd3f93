package assignment

import "math"

// bigCost marks a forbidden cell: a pair the classifier never scored. The
// solver may route through such cells while padding to a square matrix, but
// the resolver discards any assignment that lands on one.
const bigCost = 1e12

// solveLAP solves the square minimum-cost assignment problem with the
// shortest-augmenting-path method (Jonker-Volgenant family) in O(n^3).
// Returns the column assigned to each row. The algorithm is deterministic
// for a given matrix, which the resolver relies on for reproducible output.
func solveLAP(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	// potentials and assignments are 1-based with a dummy row/column 0
	u := make([]float64, n+1)
	v := make([]float64, n+1)
	way := make([]int, n+1)
	colRow := make([]int, n+1) // colRow[j] = row assigned to column j
	for j := range colRow {
		colRow[j] = 0
	}

	for i := 1; i <= n; i++ {
		colRow[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = math.Inf(1)
		}

		for {
			used[j0] = true
			i0 := colRow[j0]
			delta := math.Inf(1)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[colRow[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if colRow[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			colRow[j0] = colRow[j1]
			j0 = j1
		}
	}

	rowCol := make([]int, n)
	for j := 1; j <= n; j++ {
		if colRow[j] != 0 {
			rowCol[colRow[j]-1] = j - 1
		}
	}
	return rowCol
}
