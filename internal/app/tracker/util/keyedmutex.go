package util

import "sync"

// KeyedMutex - независимые мьютексы по строковому ключу
// Сериализует инжест точек цен в пределах одного товара,
// не блокируя обработку остальных товаров
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex создает новый набор мьютексов по ключу
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock захватывает мьютекс ключа, создавая его при необходимости
func (km *KeyedMutex) Lock(key string) {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyedLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
}

// Unlock освобождает мьютекс ключа
// Запись удаляется когда ключ больше никому не нужен, чтобы карта не росла
func (km *KeyedMutex) Unlock(key string) {
	km.mu.Lock()
	l := km.locks[key]
	l.refs--
	if l.refs == 0 {
		delete(km.locks, key)
	}
	km.mu.Unlock()

	l.mu.Unlock()
}
