// Package tsplib reads and writes CVRP instances in the TSPLIB text format.
// Travel costs are unrounded Euclidean distances whatever EUC_2D says about
// rounding.
package tsplib

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"vrp_column_generation/src/cvrp"
)

type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("tsplib: %s", e.Msg)
	}
	return fmt.Sprintf("tsplib: line %d: %s", e.Line, e.Msg)
}

type section int

const (
	header section = iota
	coords
	demands
	depots
	done
)

type parser struct {
	line      int
	name      string
	dimension int
	capacity  int
	nodes     map[int]*cvrp.Node
	order     []int
	demandSet map[int]bool
	depots    []int
	depotEnd  bool
	section   section
}

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) intValue(value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, p.errorf("invalid integer %q", value)
	}
	return v, nil
}

func (p *parser) parseHeader(key, value string) error {
	var err error
	switch key {
	case "NAME":
		p.name = value
	case "TYPE":
		if value != "CVRP" {
			return p.errorf("unsupported TYPE %q", value)
		}
	case "DIMENSION":
		p.dimension, err = p.intValue(value)
		if err == nil && p.dimension <= 0 {
			err = p.errorf("DIMENSION must be positive")
		}
	case "CAPACITY":
		p.capacity, err = p.intValue(value)
	case "EDGE_WEIGHT_TYPE":
		if value != "EUC_2D" {
			return p.errorf("unsupported EDGE_WEIGHT_TYPE %q", value)
		}
	case "COMMENT":
	default:
		return p.errorf("unknown keyword %q", key)
	}
	return err
}

func (p *parser) parseKeyword(fields []string, raw string) error {
	switch fields[0] {
	case "NODE_COORD_SECTION":
		p.section = coords
	case "DEMAND_SECTION":
		p.section = demands
	case "DEPOT_SECTION":
		p.section = depots
	case "EOF":
		p.section = done
	default:
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			return p.errorf("expected KEY : VALUE, got %q", strings.TrimSpace(raw))
		}
		return p.parseHeader(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return nil
}

func (p *parser) parseCoord(fields []string) error {
	if len(fields) != 3 {
		return p.errorf("expected id x y, got %d fields", len(fields))
	}
	id, err := p.intValue(fields[0])
	if err != nil {
		return err
	}
	x, errX := strconv.ParseFloat(fields[1], 64)
	y, errY := strconv.ParseFloat(fields[2], 64)
	if errX != nil || errY != nil {
		return p.errorf("invalid coordinates for node %d", id)
	}
	if _, ok := p.nodes[id]; ok {
		return p.errorf("duplicate node %d", id)
	}
	p.nodes[id] = &cvrp.Node{ID: id, X: x, Y: y}
	p.order = append(p.order, id)
	return nil
}

func (p *parser) parseDemand(fields []string) error {
	if len(fields) != 2 {
		return p.errorf("expected id demand, got %d fields", len(fields))
	}
	id, err := p.intValue(fields[0])
	if err != nil {
		return err
	}
	d, err := p.intValue(fields[1])
	if err != nil {
		return err
	}
	n, ok := p.nodes[id]
	if !ok {
		return p.errorf("demand for unknown node %d", id)
	}
	if p.demandSet[id] {
		return p.errorf("duplicate demand for node %d", id)
	}
	p.demandSet[id] = true
	n.Demand = d
	return nil
}

func (p *parser) parseDepot(fields []string) error {
	for _, f := range fields {
		id, err := p.intValue(f)
		if err != nil {
			return err
		}
		if id < 0 {
			p.depotEnd = true
			p.section = header
			return nil
		}
		p.depots = append(p.depots, id)
	}
	return nil
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func (p *parser) parseLine(raw string) error {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil
	}
	if !isNumber(fields[0]) {
		return p.parseKeyword(fields, raw)
	}
	switch p.section {
	case coords:
		return p.parseCoord(fields)
	case demands:
		return p.parseDemand(fields)
	case depots:
		return p.parseDepot(fields)
	}
	return p.errorf("unexpected data line %q", strings.TrimSpace(raw))
}

func (p *parser) build() (*cvrp.Instance, error) {
	switch {
	case p.dimension == 0:
		return nil, p.errorf("missing DIMENSION")
	case p.capacity == 0:
		return nil, p.errorf("missing CAPACITY")
	case len(p.nodes) != p.dimension:
		return nil, p.errorf("DIMENSION is %d but %d nodes have coordinates", p.dimension, len(p.nodes))
	case len(p.demandSet) != p.dimension:
		return nil, p.errorf("DIMENSION is %d but %d nodes have demands", p.dimension, len(p.demandSet))
	case !p.depotEnd:
		return nil, p.errorf("DEPOT_SECTION missing or not terminated by -1")
	case len(p.depots) != 1:
		return nil, p.errorf("expected exactly one depot, got %d", len(p.depots))
	}

	nodes := make([]cvrp.Node, 0, len(p.order))
	for _, id := range p.order {
		nodes = append(nodes, *p.nodes[id])
	}
	inst, err := cvrp.NewInstance(nodes, p.depots[0], p.capacity)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	inst.Name = p.name
	return inst, nil
}

// Parse reads a CVRP instance. Every error is a *ParseError.
func Parse(r io.Reader) (*cvrp.Instance, error) {
	p := &parser{
		nodes:     make(map[int]*cvrp.Node),
		demandSet: make(map[int]bool),
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() && p.section != done {
		p.line++
		if err := p.parseLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Line: p.line, Msg: err.Error()}
	}
	return p.build()
}

func Load(filename string) (*cvrp.Instance, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write prints inst so that Parse reads it back unchanged.
func Write(w io.Writer, inst *cvrp.Instance) error {
	bw := bufio.NewWriter(w)
	nodes := inst.Nodes()
	if inst.Name != "" {
		fmt.Fprintf(bw, "NAME : %s\n", inst.Name)
	}
	fmt.Fprintln(bw, "TYPE : CVRP")
	fmt.Fprintf(bw, "DIMENSION : %d\n", len(nodes))
	fmt.Fprintln(bw, "EDGE_WEIGHT_TYPE : EUC_2D")
	fmt.Fprintf(bw, "CAPACITY : %d\n", inst.Capacity)
	fmt.Fprintln(bw, "NODE_COORD_SECTION")
	for _, n := range nodes {
		fmt.Fprintf(bw, "%d %s %s\n", n.ID, formatFloat(n.X), formatFloat(n.Y))
	}
	fmt.Fprintln(bw, "DEMAND_SECTION")
	for _, n := range nodes {
		fmt.Fprintf(bw, "%d %d\n", n.ID, n.Demand)
	}
	fmt.Fprintln(bw, "DEPOT_SECTION")
	fmt.Fprintf(bw, "%d\n-1\nEOF\n", inst.Depot)
	return bw.Flush()
}

func Save(filename string, inst *cvrp.Instance) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := Write(file, inst); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
