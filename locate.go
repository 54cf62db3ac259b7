/*
Copyright © 2025 the aqdata authors.
This file is part of aqdata.

aqdata is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

aqdata is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with aqdata.  If not, see <http://www.gnu.org/licenses/>.
*/

package aqdata

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"
)

// group is the slice of the go-native-netcdf group API the locator
// needs. It exists so the traversal can be exercised without a file
// on disk.
type group interface {
	ListVariables() []string
	ListSubgroups() []string
	// Child opens the named subgroup.
	Child(name string) (group, error)
}

// ncGroup adapts an api.Group to the group interface.
type ncGroup struct {
	api.Group
}

func (g ncGroup) Child(name string) (group, error) {
	sub, err := g.Group.GetGroup(name)
	if err != nil {
		return nil, err
	}
	return ncGroup{sub}, nil
}

// FindVariable searches the groups of a hierarchical dataset for a
// variable whose name case-insensitively equals one of hints or
// contains one of the contains substrings, returning its
// slash-delimited path, or "" if no variable matches.
//
// The traversal is a deterministic pre-order: each group's variables
// are considered in sorted name order before its subgroups, which
// are themselves visited in sorted name order. When several
// variables satisfy the hints, the first one in that order wins, so
// results are reproducible even for ambiguous hint sets.
func FindVariable(g api.Group, hints, contains []string) (string, error) {
	return findVariable(ncGroup{g}, "", hints, contains)
}

func findVariable(g group, prefix string, hints, contains []string) (string, error) {
	vars := g.ListVariables()
	sort.Strings(vars)
	for _, name := range vars {
		if matchName(name, hints, contains) {
			return prefix + "/" + name, nil
		}
	}
	subs := g.ListSubgroups()
	sort.Strings(subs)
	for _, name := range subs {
		sub, err := g.Child(name)
		if err != nil {
			return "", fmt.Errorf("aqdata: opening group %s/%s: %v", prefix, name, err)
		}
		path, err := findVariable(sub, prefix+"/"+name, hints, contains)
		if err != nil || path != "" {
			return path, err
		}
	}
	return "", nil
}

func matchName(name string, hints, contains []string) bool {
	lower := strings.ToLower(name)
	for _, h := range hints {
		if lower == strings.ToLower(h) {
			return true
		}
	}
	for _, c := range contains {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

// readVariable resolves a slash-delimited path returned by
// FindVariable and reads the whole variable into a dense array.
func readVariable(g api.Group, path string) (*sparse.DenseArray, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	cur := g
	for _, s := range segments[:len(segments)-1] {
		sub, err := cur.GetGroup(s)
		if err != nil {
			return nil, fmt.Errorf("aqdata: opening group %q in %q: %v", s, path, err)
		}
		cur = sub
	}
	vg, err := cur.GetVarGetter(segments[len(segments)-1])
	if err != nil {
		return nil, fmt.Errorf("aqdata: opening variable %q: %v", path, err)
	}
	vals, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("aqdata: reading variable %q: %v", path, err)
	}
	d, err := toDense(vals)
	if err != nil {
		return nil, fmt.Errorf("aqdata: variable %q: %v", path, err)
	}
	return d, nil
}

// toDense converts the nested numeric slices returned by the netcdf
// library into a dense array, preserving shape.
func toDense(vals interface{}) (*sparse.DenseArray, error) {
	var shape []int
	v := reflect.ValueOf(vals)
	for v.Kind() == reflect.Slice {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("value of type %T is not an array", vals)
	}
	d := sparse.ZerosDense(shape...)
	i := 0
	if err := flatten(reflect.ValueOf(vals), shape, d.Elements, &i); err != nil {
		return nil, err
	}
	return d, nil
}

func flatten(v reflect.Value, shape []int, out []float64, i *int) error {
	if len(shape) == 0 {
		switch v.Kind() {
		case reflect.Float32, reflect.Float64:
			out[*i] = v.Float()
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			out[*i] = float64(v.Int())
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			out[*i] = float64(v.Uint())
		default:
			return fmt.Errorf("non-numeric element of type %s", v.Type())
		}
		*i++
		return nil
	}
	if v.Len() != shape[0] {
		return fmt.Errorf("ragged array: length %d where %d expected", v.Len(), shape[0])
	}
	for j := 0; j < v.Len(); j++ {
		if err := flatten(v.Index(j), shape[1:], out, i); err != nil {
			return err
		}
	}
	return nil
}
