package wave

import "sync"

// FieldPool recycles fixed-size scratch buffers.
type FieldPool struct {
	pool sync.Pool
	size int
}

func NewFieldPool(size int) *FieldPool {
	return &FieldPool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make(Field, size)
			},
		},
	}
}

func (p *FieldPool) Size() int { return p.size }

func (p *FieldPool) Get() Field {
	return p.pool.Get().(Field)
}

// Put zeroes f and returns it to the pool. Buffers of the wrong size are dropped.
func (p *FieldPool) Put(f Field) {
	if len(f) == p.size {
		for i := range f {
			f[i] = 0
		}
		p.pool.Put(f)
	}
}

func (p *FieldPool) GetAndCopy(src Field) Field {
	dst := p.Get()
	copy(dst, src)
	return dst
}
